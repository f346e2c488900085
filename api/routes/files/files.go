package files

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

// HandleUpload stores the multipart "file" part in a folder
func HandleUpload(w http.ResponseWriter, r *http.Request, server interface{}) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.BadRequest(w, "No file uploaded")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		api.BadRequest(w, "No file uploaded")
		return
	}
	defer part.Close()

	caller, _ := auth.FromContext(r.Context())
	res, err := service(server).Upload(r.Context(), caller, files.UploadRequest{
		FolderID:    chi.URLParam(r, "folderId"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        part,
	})
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

// HandleList pages through a folder's files with ?page&limit
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := service(server).List(r.Context(), chi.URLParam(r, "folderId"), page, limit)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}

// HandleDelete moves a file to the trash
func HandleDelete(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).Delete(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleView returns a short-lived URL for reading the file
func HandleView(w http.ResponseWriter, r *http.Request, server interface{}) {
	res, err := service(server).View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleDownload streams the file body as an attachment
func HandleDownload(w http.ResponseWriter, r *http.Request, server interface{}) {
	dl, err := service(server).Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	defer dl.Object.Body.Close()

	contentType := dl.Object.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	if dl.Object.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Object.ContentLength, 10))
	}
	if _, err := io.Copy(w, dl.Object.Body); err != nil {
		log.Printf("⚠️  Download of %s interrupted: %v", dl.FileName, err)
	}
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

// HandleAddComment attaches a comment to a file
func HandleAddComment(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req CommentRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).AddComment(r.Context(), caller, chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, api.MessageData{Message: msg})
}

// HandleComments lists a file's comments
func HandleComments(w http.ResponseWriter, r *http.Request, server interface{}) {
	list, err := service(server).Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, list)
}
