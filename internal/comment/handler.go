package comment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Handler exposes the comment endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in CreateInput
	if err := utilities.DecodeJSON(r, &in); err != nil {
		h.logger.Debugw("invalid comment payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	c, err := h.svc.Create(r.Context(), me, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeErr(w, "create comment failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "list comments failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), me.ID, chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, "delete comment failed", err)
		return
	}
	utilities.WriteMessage(w, http.StatusOK, "comment deleted")
}

func (h *Handler) writeErr(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrCommentRequired), errors.Is(err, ErrInvalidParent):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIdeaNotFound):
		utilities.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		utilities.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Errorw(msg, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
