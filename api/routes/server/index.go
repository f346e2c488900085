package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all server-related routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		HandleHealth(w, r, server)
	})
}
