package api

import (
	"errors"
	"net/http"

	"queryproxy/internal/core"
	"queryproxy/internal/logger"
	"queryproxy/internal/service"
)

// AuthHandler serves account registration, login and API key issuance.
type AuthHandler struct {
	auth       *service.AuthService
	tokens     *service.TokenManager
	production bool
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenManager, production bool) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, production: production}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		logger.Log.Error().Err(err).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token := h.startSession(w, user)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"token":  token,
		"user":   publicUser(user),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.Log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token := h.startSession(w, user)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"token":  token,
		"user":   publicUser(user),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Logged out",
	})
}

// Me returns the identity behind the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"user": map[string]any{
			"id":       claims.ID,
			"username": claims.Username,
			"email":    claims.Email,
		},
	})
}

// GenerateAPIKey mints a fresh key for programmatic query access. Any
// previously issued key stops working.
func (h *AuthHandler) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	key, err := h.auth.IssueAPIKey(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("api key issuance failed")
		writeError(w, http.StatusInternalServerError, "Failed to generate API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"api_key": key,
	})
}

// startSession issues a session token and sets it as the auth cookie.
func (h *AuthHandler) startSession(w http.ResponseWriter, user *core.User) string {
	token, err := h.tokens.Issue(user)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", user.ID).Msg("token issuance failed")
		return ""
	}

	// SameSite=None so the browser dashboard can run on another origin;
	// that combination requires Secure in production.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(service.SessionTTL.Seconds()),
	})
	return token
}

func publicUser(u *core.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	}
}
