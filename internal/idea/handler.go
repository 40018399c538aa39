package idea

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/idea/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// maxFormBytes bounds a whole create request body, file part included.
const maxFormBytes = 10 << 20

// Handler exposes the idea endpoints. All of them require authentication.
type Handler struct {
	svc     *Service
	logger  *zap.SugaredLogger
	maxBody int64
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger, maxBody: maxFormBytes}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.svc.List(r.Context())
	if err != nil {
		h.serverError(w, "list ideas failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, ideas)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ideas, err := h.svc.ListMine(r.Context(), me.ID)
	if err != nil {
		h.serverError(w, "list my ideas failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, ideas)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "get idea failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, d)
}

// Create accepts JSON, urlencoded or multipart bodies. A multipart `file`
// part is read and discarded; uploads are not stored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	in, err := h.decodeCreate(r)
	if err != nil {
		h.logger.Debugw("invalid idea payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	i, err := h.svc.Create(r.Context(), me.ID, in)
	if err != nil {
		h.writeErr(w, "create idea failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, i)
}

func (h *Handler) decodeCreate(r *http.Request) (CreateInput, error) {
	var in CreateInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			return in, err
		}
		if f, fh, err := r.FormFile("file"); err == nil {
			n, _ := io.Copy(io.Discard, f)
			f.Close()
			h.logger.Debugw("idea attachment discarded", "filename", fh.Filename, "bytes", n)
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return in, err
		}
	default:
		err := utilities.DecodeJSON(r, &in)
		return in, err
	}
	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.ShortDescription = r.FormValue("short_description")
	in.Area = r.FormValue("area")
	in.Status = r.FormValue("status")
	return in, nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var p entity.Patch
	if err := utilities.DecodeJSON(r, &p); err != nil {
		h.logger.Debugw("invalid idea patch", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	i, err := h.svc.Update(r.Context(), me.ID, chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeErr(w, "update idea failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, i)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), me.ID, chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, "delete idea failed", err)
		return
	}
	utilities.WriteMessage(w, http.StatusOK, "idea deleted")
}

func (h *Handler) writeErr(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrEmptyPatch):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		utilities.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.serverError(w, msg, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Errorw(msg, "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
}
