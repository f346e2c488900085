package notifications

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/notifications"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/notify"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the caller's inbox routes. The websocket
// stream is registered separately by the router as HandleStream.
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.Put("/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		HandleMarkRead(w, r, server)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDelete(w, r, server)
	})
	r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
		HandleClear(w, r, server)
	})
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}

// HandleList lists the caller's notifications newest first
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	list, err := notifications.List(r.Context(), database(server), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleStream upgrades to a websocket that pushes new notifications
func HandleStream(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	if caller == nil || caller.Email == "" {
		api.BadRequest(w, "User email missing in token")
		return
	}
	hub := server.(interface{ GetHub() *notify.Hub }).GetHub()
	hub.ServeWS(w, r, caller.Email)
}

// HandleMarkRead marks one notification read
func HandleMarkRead(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := notifications.MarkRead(r.Context(), database(server), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleDelete deletes one notification
func HandleDelete(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := notifications.Delete(r.Context(), database(server), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleClear empties the caller's inbox
func HandleClear(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := notifications.ClearAll(r.Context(), database(server), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
