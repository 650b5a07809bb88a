package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zoobzio/clockz"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/servis/internal/auth"
	"github.com/erazemk/servis/internal/model"
	"github.com/erazemk/servis/internal/store"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Clock     clockz.Clock
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, err := model.NormalizeEmail(req.Email)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		storeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, email, req.Name, string(hash))
	if errors.Is(err, store.ErrEmailTaken) {
		jsonError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("account created", "user", user.ID)
	h.issue(w, r, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	email, err := model.NormalizeEmail(req.Email)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, email)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "user", user.ID, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	slog.Info("user logged in", "user", user.ID)
	h.issue(w, r, http.StatusOK, user)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email, h.Clock.Now())
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, status, sessionResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expires := h.Clock.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires, h.Clock.Now()); err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("user logged out", "user", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		storeError(w, r, err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("user changed password", "user", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
