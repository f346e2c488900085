package users

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/users"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the user administration routes. Everything but
// /me is admin only.
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		HandleMe(w, r, server)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			HandleList(w, r, server)
		})
		r.Put("/{email}", func(w http.ResponseWriter, r *http.Request) {
			HandleUpdate(w, r, server)
		})
		r.Delete("/{email}", func(w http.ResponseWriter, r *http.Request) {
			HandleDelete(w, r, server)
		})
	})
}

func service(server interface{}) *users.Service {
	return server.(interface{ GetUsers() *users.Service }).GetUsers()
}

// HandleMe returns the caller's account
func HandleMe(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	me, err := service(server).Me(r.Context(), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, me)
}

// HandleList lists users, optionally filtered by ?role
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := service(server).List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleUpdate changes a user's name or role
func HandleUpdate(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req users.UpdateUserRequest
	if !api.Decode(w, r, &req) {
		return
	}
	msg, err := service(server).Update(r.Context(), chi.URLParam(r, "email"), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleDelete removes a user
func HandleDelete(w http.ResponseWriter, r *http.Request, server interface{}) {
	msg, err := service(server).Delete(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
