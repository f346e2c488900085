package settings

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/core/settings"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers profile and tag routes
func RegisterRoutes(r chi.Router, server interface{}) {
	// Profile
	r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
		HandleProfile(w, r, server)
	})
	r.Put("/profile", func(w http.ResponseWriter, r *http.Request) {
		HandleUpdateProfile(w, r, server)
	})
	r.Post("/profile/logo", func(w http.ResponseWriter, r *http.Request) {
		HandleUploadLogo(w, r, server)
	})
	r.Post("/profile/change-email", func(w http.ResponseWriter, r *http.Request) {
		HandleChangeEmail(w, r, server)
	})
	r.Post("/reset-password", func(w http.ResponseWriter, r *http.Request) {
		HandleChangePassword(w, r, server)
	})

	// Tags
	r.Get("/tags", func(w http.ResponseWriter, r *http.Request) {
		HandleTags(w, r, server)
	})
	r.Post("/tags", func(w http.ResponseWriter, r *http.Request) {
		HandleCreateTag(w, r, server)
	})
	r.Put("/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleUpdateTag(w, r, server)
	})
	r.Delete("/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteTag(w, r, server)
	})
}

func service(server interface{}) *settings.Service {
	return server.(interface{ GetSettings() *settings.Service }).GetSettings()
}
