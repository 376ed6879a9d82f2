// Package router wires the HTTP surface onto chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-blog-api/internal/api/auth"
	"github.com/FACorreiaa/go-blog-api/internal/api/post"
	"github.com/FACorreiaa/go-blog-api/internal/api/user"
	"github.com/FACorreiaa/go-blog-api/internal/types"
)

// Config contains the handlers and middleware needed for router setup.
// Server-wide middleware (request ID, logger, recoverer) are applied before
// mounting this router in main.go.
type Config struct {
	AuthHandler *auth.AuthHandler
	UserHandler *user.UserHandler
	PostHandler *post.PostHandler

	AuthenticateMiddleware func(http.Handler) http.Handler
	RequireRole            func(minRole types.Role) func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public routes: registration, login, refresh and published content.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshToken)

			r.Get("/posts", cfg.PostHandler.GetPosts)
			r.Get("/posts/{postID}", cfg.PostHandler.GetPostByID)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/users/me", cfg.UserHandler.GetMe)
			r.Get("/users/{userID}", cfg.UserHandler.GetUserByID)

			r.Post("/posts", cfg.PostHandler.CreatePost)
			r.Get("/posts/mine", cfg.PostHandler.GetMyPosts)
			r.Patch("/posts/{postID}", cfg.PostHandler.UpdatePost)

			// Moderator and up.
			r.Group(func(r chi.Router) {
				r.Use(cfg.RequireRole(types.RoleModerator))

				r.Get("/users", cfg.UserHandler.GetUsers)
				r.Get("/posts/all", cfg.PostHandler.GetAllPosts)
				r.Delete("/posts/{postID}", cfg.PostHandler.DeletePost)
			})

			// Admin only.
			r.Group(func(r chi.Router) {
				r.Use(cfg.RequireRole(types.RoleAdmin))

				r.Delete("/users/{userID}", cfg.UserHandler.DeleteUser)
				r.Post("/users/{userID}/deactivate", cfg.UserHandler.DeactivateUser)
				r.Post("/users/{userID}/reactivate", cfg.UserHandler.ReactivateUser)
			})
		})
	})

	return r
}
