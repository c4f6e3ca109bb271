package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clicknail/internal/domain"
	"clicknail/internal/middleware"
	"clicknail/internal/thumbgen"
)

// maxFaceImageBytes caps the optional reference photo.
const maxFaceImageBytes = 10 << 20

type generateForm struct {
	Title       string `validate:"required"`
	Style       string `validate:"required"`
	AspectRatio string `validate:"omitempty,oneof=16:9 9:16 1:1 4:3"`
}

type generateResponse struct {
	Message          string       `json:"message"`
	Thumbnail        thumbnailDTO `json:"thumbnail"`
	RemainingCredits int          `json:"remainingCredits"`
}

// GenerateThumbnail accepts the wizard's multipart form and runs one
// generation attempt.
func (a *App) GenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxFaceImageBytes); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	form := generateForm{
		Title:       r.FormValue("title"),
		Style:       r.FormValue("style"),
		AspectRatio: r.FormValue("aspect_ratio"),
	}
	if err := a.Validate.Struct(form); err != nil {
		a.error(w, http.StatusBadRequest, "Title and style are required")
		return
	}

	faceImage, err := a.readFaceImage(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Could not read uploaded image")
		return
	}

	res, err := a.Generator.Generate(r.Context(), thumbgen.GenerateRequest{
		UserID:       userID,
		Title:        form.Title,
		UserPrompt:   r.FormValue("prompt"),
		Style:        form.Style,
		ColorScheme:  r.FormValue("color_scheme"),
		AspectRatio:  form.AspectRatio,
		TemplatePack: r.FormValue("templatePack"),
		FaceImage:    faceImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.json(w, http.StatusForbidden, map[string]string{
				"message": "Insufficient credits",
				"error":   "insufficient_credits",
			})
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "User not found")
		default:
			a.internal(w, r, err, "thumbnail generation failed")
		}
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Message:          "Thumbnail generated successfully",
		Thumbnail:        toThumbnailDTO(res.Thumbnail),
		RemainingCredits: res.RemainingCredits,
	})
}

func (a *App) DeleteThumbnail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := a.Generator.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Thumbnail not found")
			return
		}
		a.internal(w, r, err, "delete thumbnail failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"message": "Thumbnail deleted successfully"})
}

// readFaceImage returns the optional "image" part, or nil when none was sent.
func (a *App) readFaceImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxFaceImageBytes))
}
