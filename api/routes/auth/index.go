package auth

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/users"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the public sign-in routes
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Post("/request-otp", func(w http.ResponseWriter, r *http.Request) {
		HandleRequestOTP(w, r, server)
	})
	r.Post("/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		HandleVerifyOTP(w, r, server)
	})
	identify := server.(interface{ GetTokens() *auth.Tokens }).GetTokens().Identify
	r.With(identify).Post("/register", func(w http.ResponseWriter, r *http.Request) {
		HandleRegister(w, r, server)
	})
	r.Post("/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		HandleForgotPassword(w, r, server)
	})
	r.Post("/reset-password", func(w http.ResponseWriter, r *http.Request) {
		HandleResetPassword(w, r, server)
	})
}

func service(server interface{}) *users.Service {
	return server.(interface{ GetUsers() *users.Service }).GetUsers()
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// HandleRequestOTP mails a login code
func HandleRequestOTP(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req OTPRequest
	if !api.Decode(w, r, &req) {
		return
	}
	msg, err := service(server).RequestOTP(r.Context(), req.Email)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleVerifyOTP exchanges a login code for a token
func HandleVerifyOTP(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req OTPRequest
	if !api.Decode(w, r, &req) {
		return
	}
	res, err := service(server).VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleRegister creates a user account. Admin accounts need an admin token.
func HandleRegister(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req users.RegisterRequest
	if !api.Decode(w, r, &req) {
		return
	}
	caller, _ := auth.FromContext(r.Context())
	msg, err := service(server).Register(r.Context(), caller, req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, api.MessageData{Message: msg})
}

// HandleForgotPassword mails a reset code if the account exists
func HandleForgotPassword(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req OTPRequest
	if !api.Decode(w, r, &req) {
		return
	}
	msg, err := service(server).ForgotPassword(r.Context(), req.Email)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}

// HandleResetPassword sets a new password using a reset code
func HandleResetPassword(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req users.ResetPasswordRequest
	if !api.Decode(w, r, &req) {
		return
	}
	msg, err := service(server).ResetPassword(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Message(w, msg)
}
