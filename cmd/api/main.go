package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/platebook/platebook-go/internal/config"
	"github.com/platebook/platebook-go/internal/handler"
	"github.com/platebook/platebook-go/internal/middleware"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
	"github.com/platebook/platebook-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(context.Background(), db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	recipeService := service.NewRecipeService(recipeRepo)
	storageService := service.NewStorageService(cfg.S3Region, cfg.S3Endpoint,
		cfg.S3AccessKey, cfg.S3SecretKey, cfg.AvatarBucket, cfg.RecipeImageBucket)

	authHandler := handler.NewAuthHandler(authService, cfg)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	uploadHandler := handler.NewUploadHandler(storageService)
	adminHandler := handler.NewAdminHandler(authService)

	authn := middleware.Authenticate(cfg.CookieName, cfg.JWTSecret, userRepo)
	counters := middleware.NewMemoryCounterStore()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Throttle(50, 100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(counters, 5, time.Minute,
					"Too many login attempts, please try again later"))
				r.Post("/login", authHandler.HandleLogin)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(counters, 10, time.Minute,
					"Too many refresh attempts, please try again later"))
				r.Post("/refresh", authHandler.HandleRefresh)
			})

			r.Post("/logout", authHandler.HandleLogout)

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

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
