package reports

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/core/reports"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the reporting routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/files", func(w http.ResponseWriter, r *http.Request) {
		HandleFiles(w, r, server)
	})
	r.Get("/file-share", func(w http.ResponseWriter, r *http.Request) {
		HandleFileShare(w, r, server)
	})
	r.Get("/file/{fileId}/activity", func(w http.ResponseWriter, r *http.Request) {
		HandleFileActivity(w, r, server)
	})
}

func database(server interface{}) *db.DB {
	return server.(interface{ GetDB() *db.DB }).GetDB()
}

// HandleFiles returns every file with its counters and shares
func HandleFiles(w http.ResponseWriter, r *http.Request, server interface{}) {
	rows, err := reports.FilesReport(r.Context(), database(server))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, rows)
}

// HandleFileShare returns the files that have been shared
func HandleFileShare(w http.ResponseWriter, r *http.Request, server interface{}) {
	rows, err := reports.ShareReport(r.Context(), database(server))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, rows)
}

// HandleFileActivity returns the share and log history of one file
func HandleFileActivity(w http.ResponseWriter, r *http.Request, server interface{}) {
	res, err := reports.FileActivityReport(r.Context(), database(server), chi.URLParam(r, "fileId"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}
