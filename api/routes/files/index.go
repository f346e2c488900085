package files

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers folder and file routes
func RegisterRoutes(r chi.Router, server interface{}) {
	// Folders
	r.Post("/folder", func(w http.ResponseWriter, r *http.Request) {
		HandleCreateFolder(w, r, server)
	})
	r.Get("/folders", func(w http.ResponseWriter, r *http.Request) {
		HandleListFolders(w, r, server)
	})
	r.Get("/folder/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleOpenFolder(w, r, server)
	})
	r.With(auth.RequireAdmin).Put("/folder/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleRenameFolder(w, r, server)
	})
	r.With(auth.RequireAdmin).Delete("/folder/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteFolder(w, r, server)
	})

	// Files
	r.Post("/upload/{folderId}", func(w http.ResponseWriter, r *http.Request) {
		HandleUpload(w, r, server)
	})
	r.Get("/files/{folderId}", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
	r.Delete("/file/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDelete(w, r, server)
	})
	r.Get("/view/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleView(w, r, server)
	})
	r.Get("/download/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDownload(w, r, server)
	})

	// Comments
	r.Post("/file/{id}/comment", func(w http.ResponseWriter, r *http.Request) {
		HandleAddComment(w, r, server)
	})
	r.Get("/file/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		HandleComments(w, r, server)
	})
}

func service(server interface{}) *files.Service {
	return server.(interface{ GetFiles() *files.Service }).GetFiles()
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}
