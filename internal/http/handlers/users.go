package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clicknail/internal/domain"
	"clicknail/internal/middleware"
)

// ListThumbnails returns every thumbnail the session user owns.
func (a *App) ListThumbnails(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	thumbs, err := a.Generator.List(r.Context(), userID)
	if err != nil {
		a.internal(w, r, err, "list thumbnails failed")
		return
	}
	out := make([]thumbnailDTO, 0, len(thumbs))
	for i := range thumbs {
		out = append(out, toThumbnailDTO(&thumbs[i]))
	}
	a.json(w, http.StatusOK, map[string][]thumbnailDTO{"thumbnail": out})
}

// GetThumbnail returns one thumbnail, 404 unless the session user owns it.
func (a *App) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	thumb, err := a.Generator.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Thumbnail not found")
			return
		}
		a.internal(w, r, err, "load thumbnail failed")
		return
	}
	a.json(w, http.StatusOK, map[string]thumbnailDTO{"thumbnail": toThumbnailDTO(thumb)})
}
