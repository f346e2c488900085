package groups

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/groups"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the group routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.With(auth.RequireAdmin).Post("/", func(w http.ResponseWriter, r *http.Request) {
		HandleCreate(w, r, server)
	})
	r.With(auth.RequireAdmin).Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDelete(w, r, server)
	})
}

func service(server interface{}) *groups.Service {
	return server.(interface{ GetGroups() *groups.Service }).GetGroups()
}

// HandleList lists groups newest first
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := service(server).List(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleCreate creates a group and notifies its members
func HandleCreate(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req groups.CreateGroupRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := service(server).Create(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

// HandleDelete deletes a group and tells its members
func HandleDelete(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).Delete(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
