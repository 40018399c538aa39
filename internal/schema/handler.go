package schema

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Recreator drops and recreates a table.
type Recreator interface {
	Recreate(ctx context.Context, t Table) error
}

// Handler serves the table bootstrap routes. They are destructive and carry
// no access control, so the router only mounts them when explicitly enabled.
type Handler struct {
	repo   Recreator
	logger *zap.SugaredLogger
}

// NewHandler constructs a new Handler.
func NewHandler(repo Recreator, logger *zap.SugaredLogger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create returns a handler that drops and recreates t. Tables referencing t
// are recreated too and lose their rows.
func (h *Handler) Create(t Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.repo.Recreate(r.Context(), t); err != nil {
			h.logger.Errorw("recreate table failed", "table", t.Name, "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "failed to create "+t.Name+" table")
			return
		}
		h.logger.Warnw("table recreated", "table", t.Name, "remote", r.RemoteAddr)
		utilities.WriteMessage(w, http.StatusOK, t.Name+" table created")
	}
}
