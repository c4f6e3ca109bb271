package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"clicknail/internal/domain"
	"clicknail/internal/infra/google"
	"clicknail/internal/session"
)

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	app.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Account created successfully" {
		t.Fatalf("message = %v", body["message"])
	}
	user := body["user"].(map[string]any)
	if user["email"] != "ada@example.com" || user["credits"] != float64(domain.DefaultCredits) {
		t.Fatalf("user = %v", user)
	}
	if !hasSessionCookie(rec) {
		t.Fatal("no session cookie issued")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{createErr: domain.ErrEmailTaken}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	app.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "User already exists" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"ada@example.com"}`))
	rec := httptest.NewRecorder()
	app.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	app := newTestApp()
	app.Users = &stubUsers{user: &domain.User{
		ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: string(hash), Credits: 3,
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	app.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["message"] != "Login successful" {
		t.Fatalf("message = %v", body["message"])
	}
	if !hasSessionCookie(rec) {
		t.Fatal("no session cookie issued")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	app := newTestApp()
	app.Users = &stubUsers{user: &domain.User{ID: "u1", Email: "ada@example.com", PasswordHash: string(hash)}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	app.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Invalid email or password" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestLoginUnknownEmailSameMessage(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{getErr: domain.ErrNotFound}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ghost@example.com","password":"whatever"}`))
	rec := httptest.NewRecorder()
	app.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Invalid email or password" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestLoginGoogleOnlyAccountHasNoPassword(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{user: &domain.User{ID: "u1", Email: "ada@example.com", GoogleSub: "sub-1"}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"anything"}`))
	rec := httptest.NewRecorder()
	app.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGoogleLoginUpsertsAndSignsIn(t *testing.T) {
	users := &stubUsers{}
	app := newTestApp()
	app.Users = users
	app.Google = &stubVerifier{claims: &google.Claims{
		Sub: "sub-1", Email: "ada@example.com", Name: "Ada", Picture: "https://lh3.test/p.png",
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google",
		strings.NewReader(`{"credential":"header.payload.sig"}`))
	rec := httptest.NewRecorder()
	app.GoogleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if users.upserted == nil || users.upserted.GoogleSub != "sub-1" {
		t.Fatalf("upserted = %+v", users.upserted)
	}
	if !hasSessionCookie(rec) {
		t.Fatal("no session cookie issued")
	}
}

func TestGoogleLoginMissingCredential(t *testing.T) {
	app := newTestApp()
	rec := httptest.NewRecorder()
	app.GoogleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "No credential provided" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestGoogleLoginInvalidToken(t *testing.T) {
	app := newTestApp()
	app.Google = &stubVerifier{err: errors.New("bad signature")}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google",
		strings.NewReader(`{"credential":"not-a-token"}`))
	rec := httptest.NewRecorder()
	app.GoogleLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Invalid token" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestVerifyReturnsSessionUser(t *testing.T) {
	app := newTestApp()
	app.Users = &stubUsers{user: &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Credits: 4}}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil), "u1")
	rec := httptest.NewRecorder()
	app.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	if user["id"] != "u1" || user["credits"] != float64(4) {
		t.Fatalf("user = %v", user)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	app.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge >= 0 {
			t.Fatalf("session cookie not expired: MaxAge=%d", c.MaxAge)
		}
	}
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return true
		}
	}
	return false
}
