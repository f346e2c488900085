package trash

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/trash"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the trash routes. The group is admin only.
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.Post("/restore/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleRestore(w, r, server)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandlePermanentDelete(w, r, server)
	})
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}

// HandleList lists trashed items newest first
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := trash.List(r.Context(), database(server))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleRestore puts a trashed file or folder back
func HandleRestore(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := trash.Restore(r.Context(), database(server), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandlePermanentDelete drops a trashed item and its stored body
func HandlePermanentDelete(w http.ResponseWriter, r *http.Request, server interface{}) {
	store := server.(interface{ GetStore() blob.Store }).GetStore()
	msg, err := trash.PermanentDelete(r.Context(), database(server), store, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
