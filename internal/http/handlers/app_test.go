package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"clicknail/internal/domain"
	"clicknail/internal/infra"
	"clicknail/internal/infra/google"
	"clicknail/internal/middleware"
	"clicknail/internal/thumbgen"
)

type stubUsers struct {
	user      *domain.User
	createErr error
	getErr    error
	upserted  *domain.User
}

func (s *stubUsers) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.User{ID: "u1", Name: name, Email: email, PasswordHash: passwordHash, Credits: domain.DefaultCredits}, nil
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubUsers) UpsertGoogle(ctx context.Context, name, email, googleSub, avatarURL string) (*domain.User, error) {
	s.upserted = &domain.User{ID: "u1", Name: name, Email: email, GoogleSub: googleSub, AvatarURL: avatarURL, Credits: domain.DefaultCredits}
	return s.upserted, nil
}

type stubFeedback struct {
	created *domain.Feedback
	err     error
}

func (s *stubFeedback) Create(ctx context.Context, userID string, rating int, comment string) (*domain.Feedback, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &domain.Feedback{ID: "f1", UserID: userID, Rating: rating, Comment: comment}
	return s.created, nil
}

type stubGenerator struct {
	lastReq thumbgen.GenerateRequest
	result  *thumbgen.GenerateResult
	genErr  error

	thumbs  []domain.Thumbnail
	listErr error

	thumb  *domain.Thumbnail
	getErr error

	deletedID string
	delErr    error
}

func (s *stubGenerator) Generate(ctx context.Context, req thumbgen.GenerateRequest) (*thumbgen.GenerateResult, error) {
	s.lastReq = req
	if s.genErr != nil {
		return nil, s.genErr
	}
	return s.result, nil
}

func (s *stubGenerator) List(ctx context.Context, userID string) ([]domain.Thumbnail, error) {
	return s.thumbs, s.listErr
}

func (s *stubGenerator) Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.thumb, nil
}

func (s *stubGenerator) Delete(ctx context.Context, id, userID string) error {
	s.deletedID = id
	return s.delErr
}

type stubVerifier struct {
	claims *google.Claims
	err    error
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, token string) (*google.Claims, error) {
	return s.claims, s.err
}

func newTestApp() *App {
	return &App{
		Config:   &infra.Config{AppEnv: "test"},
		Logger:   zerolog.Nop(),
		Sessions: sessions.NewCookieStore([]byte("test-secret")),
		Validate: validator.New(),
	}
}

// asUser attaches an authenticated user id the way the session middleware
// does.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return body
}
