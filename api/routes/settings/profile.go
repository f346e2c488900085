package settings

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/settings"
	"github.com/Voltaic314/DataRoom/types/api"
)

const maxLogoMemory = 8 << 20

// HandleProfile returns the caller's profile
func HandleProfile(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	p, err := service(server).Profile(r.Context(), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, p)
}

// HandleUpdateProfile replaces the caller's profile fields
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req settings.UpdateProfileRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).UpdateProfile(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleUploadLogo stores the multipart "logo" part as the caller's logo
func HandleUploadLogo(w http.ResponseWriter, r *http.Request, server interface{}) {
	if err := r.ParseMultipartForm(maxLogoMemory); err != nil {
		api.BadRequest(w, "No logo uploaded")
		return
	}
	part, header, err := r.FormFile("logo")
	if err != nil {
		api.BadRequest(w, "No logo uploaded")
		return
	}
	defer part.Close()

	caller, _ := auth.FromContext(r.Context())
	res, err := service(server).UploadLogo(r.Context(), caller, header.Filename,
		header.Header.Get("Content-Type"), header.Size, part)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

// HandleChangeEmail moves the caller's account to a new email
func HandleChangeEmail(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req ChangeEmailRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	res, err := service(server).ChangeEmail(r.Context(), caller, req.NewEmail)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleChangePassword changes the caller's password after checking the
// current one
func HandleChangePassword(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req settings.ChangePasswordRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).ChangePassword(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
