package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/platebook/platebook-go/internal/config"
	"github.com/platebook/platebook-go/internal/middleware"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
	"github.com/platebook/platebook-go/internal/service"
)

const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the refresh cookie to the one endpoint that
// reads it, so it never rides along on ordinary API requests.
const refreshCookiePath = "/api/auth/refresh"

// AuthHandler handles signup, login, logout, token refresh and the
// current-user profile endpoints.
type AuthHandler struct {
	service *service.AuthService
	cfg     config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cfg config.Config) *AuthHandler {
	return &AuthHandler{service: svc, cfg: cfg}
}

// setAccessCookie writes the access-token cookie. maxAge <= 0 means a
// session cookie (no Max-Age attribute).
func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, token string, maxAge int) {
	c := &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge > 0 {
		c.MaxAge = maxAge
	}
	http.SetCookie(w, c)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.cfg.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// HandleSignup handles POST /api/auth/signup.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		slog.Error("signup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("An error occurred during signup"))
		return
	}

	h.setAccessCookie(w, token, int(h.cfg.AccessTTL/time.Second))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    model.PublicUser(user),
	})
}

// HandleLogin handles POST /api/auth/login. Without rememberMe the access
// cookie is session-scoped; with it the access cookie gets its full
// max-age and a refresh cookie is issued alongside.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, access, refresh, err := h.service.Login(r.Context(), req)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		slog.Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("An error occurred during login"))
		return
	}

	if req.RememberMe {
		h.setAccessCookie(w, access, int(h.cfg.AccessTTL/time.Second))
		h.setRefreshCookie(w, refresh)
	} else {
		h.setAccessCookie(w, access, 0)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    model.PublicUser(user),
	})
}

// HandleLogout handles POST /api/auth/logout. Logout is purely cookie
// clearing; previously issued tokens remain valid until they expire.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// HandleRefresh handles POST /api/auth/refresh. It exchanges a valid
// refresh cookie for a fresh access cookie.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse("No refresh token provided"))
		return
	}

	access, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid or expired refresh token"))
		case errors.Is(err, repository.ErrUserNotFound):
			writeJSON(w, http.StatusUnauthorized, errorResponse("User not found"))
		default:
			slog.Error("token refresh failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("An error occurred during token refresh"))
		}
		return
	}

	h.setAccessCookie(w, access, int(h.cfg.AccessTTL/time.Second))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Token refreshed successfully",
	})
}

// HandleGetMe handles GET /api/auth/me.
func (h *AuthHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	user, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("User not found"))
			return
		}
		slog.Error("get profile failed", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to load profile"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    model.PublicUser(user),
	})
}

// HandleUpdateMe handles PUT /api/auth/me.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	var req model.ProfileUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("User not found"))
			return
		}
		slog.Error("profile update failed", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to update profile"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"user":    model.PublicUser(user),
	})
}
