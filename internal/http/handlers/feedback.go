package handlers

import (
	"encoding/json"
	"net/http"

	"clicknail/internal/middleware"
)

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type feedbackDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

func (a *App) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "Rating and comment are required.")
		return
	}

	fb, err := a.Feedback.Create(r.Context(), userID, req.Rating, req.Comment)
	if err != nil {
		a.internal(w, r, err, "save feedback failed")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"message": "Feedback submitted successfully!",
		"feedback": feedbackDTO{
			ID:        fb.ID,
			UserID:    fb.UserID,
			Rating:    fb.Rating,
			Comment:   fb.Comment,
			CreatedAt: fb.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		},
	})
}
