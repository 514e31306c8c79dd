package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/platebook/platebook-go/internal/config"
	"github.com/platebook/platebook-go/internal/middleware"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
	"github.com/platebook/platebook-go/internal/service"
)

// memoryUserRepo is an in-memory repository.UserRepository.
type memoryUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (m *memoryUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserRepo) GetByIDAndEmail(_ context.Context, id int64, email string) (*model.User, error) {
	if u, ok := m.users[id]; ok && u.Email == email {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserRepo) EmailInUse(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepo) UpdateProfile(_ context.Context, id int64, changes model.ProfileChanges) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if changes.Name != "" {
		u.Name = changes.Name
	}
	if changes.Email != "" {
		u.Email = changes.Email
	}
	if changes.AvatarURL != "" {
		u.AvatarURL = changes.AvatarURL
	}
	if changes.PasswordHash != "" {
		u.PasswordHash = changes.PasswordHash
	}
	u.UpdatedAt = time.Now()
	clone := *u
	return &clone, nil
}

func (m *memoryUserRepo) List(_ context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// memoryRecipeRepo is an in-memory repository.RecipeRepository.
type memoryRecipeRepo struct {
	recipes map[string]*model.Recipe
}

func newMemoryRecipeRepo() *memoryRecipeRepo {
	return &memoryRecipeRepo{recipes: make(map[string]*model.Recipe)}
}

func (m *memoryRecipeRepo) Create(_ context.Context, recipe *model.Recipe) error {
	recipe.CreatedAt = time.Now()
	recipe.UpdatedAt = recipe.CreatedAt
	clone := *recipe
	m.recipes[recipe.ID] = &clone
	return nil
}

func (m *memoryRecipeRepo) GetByID(_ context.Context, id string) (*model.Recipe, error) {
	if r, ok := m.recipes[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, repository.ErrRecipeNotFound
}

func (m *memoryRecipeRepo) Update(_ context.Context, recipe *model.Recipe) error {
	if _, ok := m.recipes[recipe.ID]; !ok {
		return repository.ErrRecipeNotFound
	}
	recipe.UpdatedAt = time.Now()
	clone := *recipe
	m.recipes[recipe.ID] = &clone
	return nil
}

func (m *memoryRecipeRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.recipes[id]; !ok {
		return repository.ErrRecipeNotFound
	}
	delete(m.recipes, id)
	return nil
}

func (m *memoryRecipeRepo) Search(_ context.Context, params model.RecipeSearchParams) ([]model.Recipe, int, error) {
	var out []model.Recipe
	for _, r := range m.recipes {
		if params.MealType != "" && r.MealType != params.MealType {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

// testEnv wires real services and handlers over in-memory repositories
// behind the same route tree main builds.
type testEnv struct {
	router  *chi.Mux
	users   *memoryUserRepo
	recipes *memoryRecipeRepo
	cfg     config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Env:        "test",
		JWTSecret:  "test-secret",
		AccessTTL:  7 * 24 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
		CookieName: "auth_token",
	}

	users := newMemoryUserRepo()
	recipes := newMemoryRecipeRepo()

	authSvc := service.NewAuthService(users, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	recipeSvc := service.NewRecipeService(recipes)
	storageSvc := service.NewStorageService("us-east-1", "http://localhost:9000",
		"minioadmin", "minioadmin", "avatars", "recipe-images")

	authHandler := NewAuthHandler(authSvc, cfg)
	recipeHandler := NewRecipeHandler(recipeSvc)
	uploadHandler := NewUploadHandler(storageSvc)
	adminHandler := NewAdminHandler(authSvc)

	authn := middleware.Authenticate(cfg.CookieName, cfg.JWTSecret, users)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Post("/refresh", authHandler.HandleRefresh)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", authHandler.HandleGetMe)
				r.Put("/me", authHandler.HandleUpdateMe)
			})
		})
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleSearch)
			r.Get("/search", recipeHandler.HandleSearch)
			r.Get("/{id}", recipeHandler.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/", recipeHandler.HandleCreate)
				r.Put("/{id}", recipeHandler.HandleUpdate)
				r.Delete("/{id}", recipeHandler.HandleDelete)
			})
		})
		r.Route("/uploads", func(r chi.Router) {
			r.Use(authn)
			r.Post("/presign", uploadHandler.HandlePresign)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(authn, middleware.RequireRole(model.RoleAdmin))
			r.Get("/users", adminHandler.HandleListUsers)
			r.Delete("/users/{id}", adminHandler.HandleDeleteUser)
		})
	})

	return &testEnv{router: r, users: users, recipes: recipes, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec.Result()
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// signup registers a user and returns the access cookie.
func (e *testEnv) signup(t *testing.T, name, email, password string) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/signup", model.SignupRequest{
		Name: name, Email: email, Password: password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := findCookie(resp, e.cfg.CookieName)
	require.NotNil(t, cookie)
	return cookie
}
