package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebook/platebook-go/internal/model"
)

func TestSignupSetsAuthCookie(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/signup", model.SignupRequest{
		Name: "Alice", Email: "alice@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	cookie := findCookie(resp, "auth_token")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.False(t, cookie.Secure, "cookies are only Secure in production")
}

func TestSignupValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/signup", model.SignupRequest{
		Email: "bad", Password: "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "Name is required", errs["name"])
	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Equal(t, "Password must be at least 8 characters", errs["password"])
}

func TestSignupMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/signup", "not-an-object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "Invalid email or password", body["message"])
	assert.Nil(t, findCookie(resp, "auth_token"))
}

func TestLoginSessionCookieWithoutRememberMe(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: "alice@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := findCookie(resp, "auth_token")
	require.NotNil(t, cookie)
	assert.Equal(t, 0, cookie.MaxAge, "access cookie must be session-scoped without rememberMe")
	assert.Nil(t, findCookie(resp, "refresh_token"), "no refresh cookie without rememberMe")
}

func TestLoginRememberMeIssuesBothCookies(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: "alice@example.com", Password: "password1", RememberMe: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := findCookie(resp, "auth_token")
	require.NotNil(t, access)
	assert.Equal(t, 7*24*60*60, access.MaxAge)

	refresh := findCookie(resp, "refresh_token")
	require.NotNil(t, refresh)
	assert.Equal(t, "/api/auth/refresh", refresh.Path)
	assert.Equal(t, 30*24*60*60, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)
}

func TestMeWithLoginCookie(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "Alice", user["name"])
}

func TestMeWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "Authentication required", body["message"])
}

func TestMeAfterUserDeleted(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	delete(env.users.users, 1)

	resp := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "User not found", body["message"])
}

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPut, "/api/auth/me", model.ProfileUpdateRequest{
		Name: "Alice B",
	}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Alice B", user["name"])
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := findCookie(resp, "auth_token")
	require.NotNil(t, access)
	assert.Equal(t, -1, access.MaxAge)
	assert.Empty(t, access.Value)

	refresh := findCookie(resp, "refresh_token")
	require.NotNil(t, refresh)
	assert.Equal(t, -1, refresh.MaxAge)
}

func TestRefreshFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Alice", "alice@example.com", "password1")

	login := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: "alice@example.com", Password: "password1", RememberMe: true,
	})
	require.Equal(t, http.StatusOK, login.StatusCode)
	refresh := findCookie(login, "refresh_token")
	require.NotNil(t, refresh)

	resp := env.do(t, http.MethodPost, "/api/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := findCookie(resp, "auth_token")
	require.NotNil(t, access)
	assert.NotEmpty(t, access.Value)

	me := env.do(t, http.MethodGet, "/api/auth/me", nil, access)
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "No refresh token provided", body["message"])
}

func TestRefreshRejectsAccessCookie(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodPost, "/api/auth/refresh", nil, &http.Cookie{
		Name: "refresh_token", Value: cookie.Value,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "Invalid or expired refresh token", body["message"])
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Alice", "alice@example.com", "password1")

	resp := env.do(t, http.MethodGet, "/api/admin/users", nil, cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Admin", "admin@example.com", "password1")
	env.signup(t, "Bob", "bob@example.com", "password1")

	env.users.users[1].Role = model.RoleAdmin

	login := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: "admin@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusOK, login.StatusCode)
	cookie := findCookie(login, "auth_token")
	require.NotNil(t, cookie)

	resp := env.do(t, http.MethodDelete, "/api/admin/users/2", nil, cookie)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, exists := env.users.users[2]
	assert.False(t, exists)

	// An admin must not remove their own account.
	resp = env.do(t, http.MethodDelete, "/api/admin/users/1", nil, cookie)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeResponse(t, resp)
	assert.Equal(t, "You cannot delete your own account", body["message"])

	resp = env.do(t, http.MethodDelete, "/api/admin/users/99", nil, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/admin/users/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
