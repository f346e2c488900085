package storage

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/storage"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the caller's storage routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleUsage(w, r, server)
	})
	r.Get("/files", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.Post("/add", func(w http.ResponseWriter, r *http.Request) {
		HandleAdd(w, r, server)
	})
	r.Post("/add-folder", func(w http.ResponseWriter, r *http.Request) {
		HandleAddFolder(w, r, server)
	})
	r.Delete("/{storageRef}", func(w http.ResponseWriter, r *http.Request) {
		HandleRemove(w, r, server)
	})
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}

func HandleUsage(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	usage, err := storage.GetUsage(r.Context(), database(server), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, usage)
}

func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	list, err := storage.List(r.Context(), database(server), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleAdd saves a file or folder entry; over quota answers 402
func HandleAdd(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req storage.AddRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := storage.Add(r.Context(), database(server), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

func HandleAddFolder(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req storage.AddFolderRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := storage.AddFolder(r.Context(), database(server), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

// HandleRemove drops {storageRef}, which may also be an item id
func HandleRemove(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := storage.Remove(r.Context(), database(server), caller, chi.URLParam(r, "storageRef"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
