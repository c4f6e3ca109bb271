package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"clicknail/internal/domain"
	"clicknail/internal/infra"
	"clicknail/internal/infra/google"
	"clicknail/internal/thumbgen"
)

// UserStore is the account access the handlers need.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpsertGoogle(ctx context.Context, name, email, googleSub, avatarURL string) (*domain.User, error)
}

// FeedbackStore persists user feedback.
type FeedbackStore interface {
	Create(ctx context.Context, userID string, rating int, comment string) (*domain.Feedback, error)
}

// Generator is the thumbnail pipeline surface the handlers call.
type Generator interface {
	Generate(ctx context.Context, req thumbgen.GenerateRequest) (*thumbgen.GenerateResult, error)
	List(ctx context.Context, userID string) ([]domain.Thumbnail, error)
	Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error)
	Delete(ctx context.Context, id, userID string) error
}

// GoogleVerifier validates a Google ID token and returns its claims.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*google.Claims, error)
}

// App holds the wired dependencies behind every handler.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Sessions  sessions.Store
	Validate  *validator.Validate
	Users     UserStore
	Feedback  FeedbackStore
	Generator Generator
	Google    GoogleVerifier
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"message": message})
}

// internal reports a 500. The underlying error is logged, and echoed to the
// client only in development.
func (a *App) internal(w http.ResponseWriter, r *http.Request, err error, context string) {
	a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg(context)
	body := map[string]string{"message": "Internal server error"}
	if a.Config != nil && a.Config.IsDevelopment() {
		body["detail"] = err.Error()
	}
	a.json(w, http.StatusInternalServerError, body)
}

type userDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Credits:   u.Credits,
		Avatar:    u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// thumbnailDTO mirrors the field names the web client already consumes.
type thumbnailDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	UserPrompt   string    `json:"user_prompt,omitempty"`
	Style        string    `json:"style"`
	ColorScheme  string    `json:"color_scheme,omitempty"`
	AspectRatio  string    `json:"aspect_ratio"`
	TemplatePack string    `json:"templatePack,omitempty"`
	IsGenerating bool      `json:"isGenerating"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toThumbnailDTO(t *domain.Thumbnail) thumbnailDTO {
	return thumbnailDTO{
		ID:           t.ID,
		UserID:       t.UserID,
		Title:        t.Title,
		UserPrompt:   t.UserPrompt,
		Style:        t.Style,
		ColorScheme:  t.ColorScheme,
		AspectRatio:  t.AspectRatio,
		TemplatePack: t.TemplatePack,
		IsGenerating: t.IsGenerating,
		ImageURL:     t.ImageURL,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
