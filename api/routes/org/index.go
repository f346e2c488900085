package org

import (
	"net/http"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/orgs"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers organization sign-up, sign-in and plan purchase
// routes. Only /me needs a token, and it must be an organization token.
func RegisterRoutes(r chi.Router, server interface{}, protect func(http.Handler) http.Handler) {
	r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
		HandleRegister(w, r, server)
	})
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		HandleLogin(w, r, server)
	})
	r.Post("/payment/create-order", func(w http.ResponseWriter, r *http.Request) {
		HandleCreateOrder(w, r, server)
	})
	r.Post("/payment/verify", func(w http.ResponseWriter, r *http.Request) {
		HandleVerifyPayment(w, r, server)
	})
	r.With(protect, auth.RequireOrganization).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		HandleMe(w, r, server)
	})
}

func service(server interface{}) *orgs.Service {
	return server.(interface{ GetOrgs() *orgs.Service }).GetOrgs()
}

// HandleRegister creates an organization account without a plan
func HandleRegister(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req orgs.RegisterRequest
	if !api.Decode(w, r, &req) {
		return
	}
	res, err := service(server).Register(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Created(w, res)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin signs an organization in. Without an active plan the
// response asks for a purchase instead of carrying a token.
func HandleLogin(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req LoginRequest
	if !api.Decode(w, r, &req) {
		return
	}
	res, err := service(server).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleCreateOrder opens a payment order for a plan
func HandleCreateOrder(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req orgs.CreateOrderRequest
	if !api.Decode(w, r, &req) {
		return
	}
	res, err := service(server).CreateOrder(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleVerifyPayment checks the checkout signature and activates the plan
func HandleVerifyPayment(w http.ResponseWriter, r *http.Request, server interface{}) {
	var req orgs.VerifyPaymentRequest
	if !api.Decode(w, r, &req) {
		return
	}
	res, err := service(server).VerifyPayment(r.Context(), req)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}

// HandleMe returns the organization behind the token
func HandleMe(w http.ResponseWriter, r *http.Request, server interface{}) {
	caller, _ := auth.FromContext(r.Context())
	me, err := service(server).Me(r.Context(), caller)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, me)
}
