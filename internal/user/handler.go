package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// Handler exposes HTTP endpoints for user operations (register / login / me).
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			utilities.WriteError(w, http.StatusBadRequest, "username, email, password and name are required")
		case errors.Is(err, ErrTaken):
			utilities.WriteError(w, http.StatusBadRequest, ErrTaken.Error())
		case errors.Is(err, ErrPasswordTooLong):
			utilities.WriteError(w, http.StatusBadRequest, ErrPasswordTooLong.Error())
		default:
			h.logger.Errorw("register failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	h.logger.Infow("user registered", "user_id", u.ID)
	utilities.WriteMessage(w, http.StatusCreated, "user registered")
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			utilities.WriteError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, ErrBadCredentials):
			utilities.WriteError(w, http.StatusBadRequest, ErrBadCredentials.Error())
		default:
			h.logger.Errorw("login failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	utilities.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Me returns the user attached by the auth middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u)
}
