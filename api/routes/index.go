package routes

import (
	"net/http"
	"time"

	"github.com/Voltaic314/DataRoom/api/routes/access"
	authroutes "github.com/Voltaic314/DataRoom/api/routes/auth"
	"github.com/Voltaic314/DataRoom/api/routes/favorites"
	"github.com/Voltaic314/DataRoom/api/routes/files"
	"github.com/Voltaic314/DataRoom/api/routes/groups"
	"github.com/Voltaic314/DataRoom/api/routes/logs"
	"github.com/Voltaic314/DataRoom/api/routes/notifications"
	"github.com/Voltaic314/DataRoom/api/routes/org"
	"github.com/Voltaic314/DataRoom/api/routes/reports"
	"github.com/Voltaic314/DataRoom/api/routes/server"
	"github.com/Voltaic314/DataRoom/api/routes/settings"
	"github.com/Voltaic314/DataRoom/api/routes/storage"
	"github.com/Voltaic314/DataRoom/api/routes/trash"
	"github.com/Voltaic314/DataRoom/api/routes/users"
	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterAllRoutes registers all API routes
func RegisterAllRoutes(r chi.Router, srv interface{}) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(activity.Middleware)

	protect := srv.(interface{ GetTokens() *auth.Tokens }).GetTokens().Protect

	// long-lived, so kept out of the request timeout
	r.With(protect).Get("/api/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		notifications.HandleStream(w, r, srv)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		registerTimed(r, srv, protect)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.NotFound(w, "Route not found")
	})
}

func registerTimed(r chi.Router, srv interface{}, protect func(http.Handler) http.Handler) {
	server.RegisterRoutes(r, srv)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			authroutes.RegisterRoutes(r, srv)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(protect)
			users.RegisterRoutes(r, srv)
		})
		r.Route("/files", func(r chi.Router) {
			r.Use(protect)
			files.RegisterRoutes(r, srv)
		})
		r.Route("/groups", func(r chi.Router) {
			r.Use(protect)
			groups.RegisterRoutes(r, srv)
		})
		r.Route("/access", func(r chi.Router) {
			r.Use(protect)
			access.RegisterRoutes(r, srv)
		})
		r.Route("/trash", func(r chi.Router) {
			r.Use(protect, auth.RequireAdmin)
			trash.RegisterRoutes(r, srv)
		})
		r.Route("/favorites", func(r chi.Router) {
			r.Use(protect)
			favorites.RegisterRoutes(r, srv)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Use(protect)
			notifications.RegisterRoutes(r, srv)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Use(protect)
			reports.RegisterRoutes(r, srv)
		})
		r.Route("/storage", func(r chi.Router) {
			r.Use(protect)
			storage.RegisterRoutes(r, srv)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Use(protect)
			settings.RegisterRoutes(r, srv)
		})
		r.Route("/logs", func(r chi.Router) {
			r.Use(protect, auth.RequireAdmin)
			logs.RegisterRoutes(r, srv)
		})
	})

	r.Route("/org", func(r chi.Router) {
		org.RegisterRoutes(r, srv, protect)
	})
}
