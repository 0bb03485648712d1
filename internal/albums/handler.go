package albums

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/scope"
	"github.com/sopatech/backstage/internal/validate"
)

const maxImageBytes = 10 << 20

// ImageStore saves an uploaded cover image and returns its relative path.
type ImageStore interface {
	Save(subdir, filename string, r io.Reader) (string, error)
}

type Handler struct {
	svc    Service
	images ImageStore
}

func NewHandler(svc Service, images ImageStore) *Handler {
	return &Handler{svc: svc, images: images}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	album, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	page := pagination.Parse(r.URL.Query().Get("page"), r.URL.Query().Get("page_size"))
	result, err := h.svc.List(r.Context(), actor, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	album, err := h.svc.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	album, err := h.svc.Update(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores a multipart cover image ("image" field) and records its
// path on the album.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.images.Save("albums", header.Filename, file)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	album, err := h.svc.SetImagePath(r.Context(), actor, r.PathValue("id"), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var fields validate.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
	case errors.Is(err, ErrAlbumNotFound) || errors.Is(err, ErrArtistNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden) || errors.Is(err, scope.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
