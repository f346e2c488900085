package access

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	coreaccess "github.com/Voltaic314/DataRoom/core/access"
	"github.com/Voltaic314/DataRoom/types/api"
)

// HandleRequest files a new access request for the caller
func HandleRequest(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req coreaccess.RequestAccessRequest
	if msg, ok := decodeValid(r, requestAccessBody, &req); !ok {
		api.BadRequest(w, msg)
		return
	}
	caller, _ := auth.FromContext(r.Context())

	res, err := service(server).RequestAccess(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

// HandleList lists access requests for admins
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	list, err := service(server).ListAccessRequests(r.Context(), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}
