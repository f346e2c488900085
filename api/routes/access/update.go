package access

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// UpdateRequest is the body of PUT /api/access/requests/{id}
type UpdateRequest struct {
	Status     string `json:"status"`
	Action     string `json:"action"`
	AccessType string `json:"accessType"`
}

// HandleUpdate approves or rejects a request, or revokes a single access
// type from it
func HandleUpdate(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req UpdateRequest
	if msg, ok := decodeValid(r, updateRequestBody, &req); !ok {
		api.BadRequest(w, msg)
		return
	}
	caller, _ := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	var (
		msg string
		err error
	)
	if req.Action == "revoke" {
		msg, err = service(server).RevokeSpecificAccess(r.Context(), caller, id, req.AccessType)
	} else {
		msg, err = service(server).UpdateAccessStatus(r.Context(), caller, id, req.Status)
	}
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleRevokeAll deletes a request together with every type it granted
func HandleRevokeAll(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).RevokeAllAccess(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
