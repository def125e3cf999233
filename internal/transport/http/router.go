package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Callypige/dreamology-diary/internal/handler"
	"github.com/Callypige/dreamology-diary/internal/httputil"
	authmw "github.com/Callypige/dreamology-diary/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	DreamHandler   *handler.DreamHandler
	ProfileHandler *handler.ProfileHandler
	UploadHandler  *handler.UploadHandler
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", cfg.AuthHandler.Signup)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/refresh", cfg.AuthHandler.Refresh)
			r.Post("/verify-email", cfg.AuthHandler.VerifyEmail)
			r.Post("/resend-verification", cfg.AuthHandler.ResendVerification)
			r.Post("/check-availability", cfg.AuthHandler.CheckAvailability)
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

			r.Get("/me", cfg.AuthHandler.Me)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

			r.Route("/dreams", func(r chi.Router) {
				r.Get("/", cfg.DreamHandler.List)
				r.Post("/", cfg.DreamHandler.Create)
				// Historical client deletes via ?id=
				r.Delete("/", cfg.DreamHandler.DeleteByQuery)
				r.Get("/{id}", cfg.DreamHandler.Get)
				r.Patch("/{id}", cfg.DreamHandler.Update)
				r.Put("/{id}", cfg.DreamHandler.Update)
				r.Delete("/{id}", cfg.DreamHandler.Delete)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", cfg.ProfileHandler.Get)
				r.Patch("/", cfg.ProfileHandler.Update)
				r.Get("/stats", cfg.ProfileHandler.Stats)
			})

			r.Route("/upload", func(r chi.Router) {
				r.Post("/audio", cfg.UploadHandler.Audio)
				r.Post("/avatar", cfg.UploadHandler.Avatar)
			})
		})
	})

	return r
}
