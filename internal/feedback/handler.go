package feedback

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Handler serves the unauthenticated feedback endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	if err := utilities.DecodeJSON(r, &in); err != nil {
		h.logger.Debugw("invalid feedback payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := h.svc.Submit(r.Context(), in); err != nil {
		if errors.Is(err, ErrFeedbackRequired) {
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("submit feedback failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	utilities.WriteMessage(w, http.StatusCreated, "feedback submitted")
}
