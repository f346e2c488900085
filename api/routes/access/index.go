package access

import (
	"net/http"

	coreaccess "github.com/Voltaic314/DataRoom/core/access"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the access-request workflow routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Post("/request", func(w http.ResponseWriter, r *http.Request) {
		HandleRequest(w, r, server)
	})
	r.Get("/requests", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	// approve/reject, or revoke one type when the body says action=revoke
	r.Put("/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleUpdate(w, r, server)
	})
	r.Delete("/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleRevokeAll(w, r, server)
	})
	r.Get("/check", func(w http.ResponseWriter, r *http.Request) {
		HandleCheck(w, r, server)
	})
	r.Get("/item-users", func(w http.ResponseWriter, r *http.Request) {
		HandleItemUsers(w, r, server)
	})
}

func service(server interface{}) *coreaccess.Service {
	return server.(interface{ GetAccess() *coreaccess.Service }).GetAccess()
}
