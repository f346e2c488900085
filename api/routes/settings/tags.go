package settings

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/settings"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

func HandleTags(w http.ResponseWriter, r *http.Request, server interface{}) {
	tags, err := service(server).Tags(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, tags)
}

func HandleCreateTag(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req settings.TagRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := service(server).CreateTag(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

func HandleUpdateTag(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req settings.TagRequest
	if !api.Decode(w, r, &req) {
		return
	}
	msg, err := service(server).UpdateTag(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

func HandleDeleteTag(w http.ResponseWriter, r *http.Request, server interface{}) {
	msg, err := service(server).DeleteTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
