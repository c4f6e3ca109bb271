package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clicknail/internal/domain"
	"clicknail/internal/middleware"
	"clicknail/internal/session"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

type authResponse struct {
	Message string  `json:"message"`
	User    userDTO `json:"user"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.internal(w, r, err, "hash password failed")
		return
	}

	user, err := a.Users.Create(r.Context(), req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusBadRequest, "User already exists")
			return
		}
		a.internal(w, r, err, "create user failed")
		return
	}

	if err := a.signIn(w, r, user.ID); err != nil {
		a.internal(w, r, err, "open session failed")
		return
	}
	a.json(w, http.StatusOK, authResponse{Message: "Account created successfully", User: toUserDTO(user)})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := a.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		a.internal(w, r, err, "load user failed")
		return
	}
	// Google-only accounts have no password to compare against.
	if !user.HasPassword() || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	if err := a.signIn(w, r, user.ID); err != nil {
		a.internal(w, r, err, "open session failed")
		return
	}
	a.json(w, http.StatusOK, authResponse{Message: "Login successful", User: toUserDTO(user)})
}

func (a *App) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Credential == "" {
		a.error(w, http.StatusBadRequest, "No credential provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	claims, err := a.Google.VerifyIDToken(ctx, req.Credential)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("google token rejected")
		a.error(w, http.StatusBadRequest, "Invalid token")
		return
	}
	if claims.Email == "" {
		a.error(w, http.StatusBadRequest, "Email not found in token")
		return
	}
	name := claims.Name
	if name == "" {
		name = "User"
	}

	user, err := a.Users.UpsertGoogle(r.Context(), name, claims.Email, claims.Sub, claims.Picture)
	if err != nil {
		a.internal(w, r, err, "upsert google user failed")
		return
	}

	if err := a.signIn(w, r, user.ID); err != nil {
		a.internal(w, r, err, "open session failed")
		return
	}
	a.json(w, http.StatusOK, authResponse{Message: "Login successful", User: toUserDTO(user)})
}

// Verify returns the authenticated user behind the session cookie.
func (a *App) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "Invalid user")
			return
		}
		a.internal(w, r, err, "load user failed")
		return
	}
	a.json(w, http.StatusOK, map[string]userDTO{"user": toUserDTO(user)})
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.Sessions.Get(r, session.CookieName)
	if sess != nil {
		sess.Options.MaxAge = -1
		if err := sess.Save(r, w); err != nil {
			a.internal(w, r, err, "destroy session failed")
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// signIn rotates the session and binds it to the user.
func (a *App) signIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := a.Sessions.New(r, session.CookieName)
	if sess == nil {
		return err
	}
	// Force a fresh session id so a pre-login cookie is never kept.
	sess.ID = ""
	sess.Values["is_logged_in"] = true
	sess.Values["user_id"] = userID
	return sess.Save(r, w)
}
