package access

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/types/api"
)

// HandleCheck reports the caller's effective access to ?itemId&itemType
func HandleCheck(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	res, err := service(server).CheckUserAccess(r.Context(), caller, q.Get("itemId"), q.Get("itemType"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleItemUsers lists everyone with access to ?itemId&itemType
func HandleItemUsers(w http.ResponseWriter, r *http.Request, server interface{}) {
	q := r.URL.Query()
	users, err := service(server).GetItemUsers(r.Context(), q.Get("itemId"), q.Get("itemType"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, users)
}
