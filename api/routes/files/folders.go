package files

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/folders"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// HandleCreateFolder creates a folder owned by the caller
func HandleCreateFolder(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req folders.CreateFolderRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	folder, err := folders.CreateFolder(r.Context(), database(server), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, folder)
}

// HandleListFolders lists folders with their file counts and sizes
func HandleListFolders(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := folders.ListFolders(r.Context(), database(server))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleOpenFolder lists the files of one folder
func HandleOpenFolder(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := folders.OpenFolder(r.Context(), database(server), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleRenameFolder renames a folder its creator owns
func HandleRenameFolder(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req folders.CreateFolderRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := folders.RenameFolder(r.Context(), database(server), caller, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleDeleteFolder moves a folder and its files to the trash
func HandleDeleteFolder(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := folders.DeleteFolder(r.Context(), database(server), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
