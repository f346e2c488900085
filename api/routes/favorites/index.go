package favorites

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/favorites"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the caller's favorites routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		HandleAdd(w, r, server)
	})
	r.Delete("/{itemId}", func(w http.ResponseWriter, r *http.Request) {
		HandleRemove(w, r, server)
	})
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}

// HandleList lists the caller's favorites
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	list, err := favorites.ListFavorites(r.Context(), database(server), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleAdd stars a file or folder
func HandleAdd(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req favorites.AddFavoriteRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := favorites.AddFavorite(r.Context(), database(server), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

// HandleRemove unstars {itemId} of ?itemType
func HandleRemove(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := favorites.RemoveFavorite(r.Context(), database(server), caller,
		chi.URLParam(r, "itemId"), r.URL.Query().Get("itemType"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
