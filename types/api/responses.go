package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
)

// BaseResponse represents the standard response structure for all API endpoints
type BaseResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Response represents a complete API response with optional data
type Response struct {
	BaseResponse
	Data interface{} `json:"data,omitempty"`
}

// MessageData is the payload of endpoints that only confirm an action
type MessageData struct {
	Message string `json:"message"`
}

// NewSuccessResponse creates a successful response with optional data
func NewSuccessResponse(data interface{}) Response {
	return Response{
		BaseResponse: BaseResponse{Success: true},
		Data:         data,
	}
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errorMsg string) Response {
	return Response{
		BaseResponse: BaseResponse{
			Success: false,
			Error:   errorMsg,
		},
	}
}

// SendJSON writes a JSON response to the HTTP response writer
func (r Response) SendJSON(w http.ResponseWriter, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(r); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

// Success sends a successful response with data
func Success(w http.ResponseWriter, data interface{}) {
	NewSuccessResponse(data).SendJSON(w, http.StatusOK)
}

// Created sends a 201 response with data
func Created(w http.ResponseWriter, data interface{}) {
	NewSuccessResponse(data).SendJSON(w, http.StatusCreated)
}

// Message sends a successful response carrying only a confirmation message
func Message(w http.ResponseWriter, message string) {
	Success(w, MessageData{Message: message})
}

// BadRequest sends a 400 error response
func BadRequest(w http.ResponseWriter, message string) {
	NewErrorResponse(message).SendJSON(w, http.StatusBadRequest)
}

// Unauthorized sends a 401 error response
func Unauthorized(w http.ResponseWriter, message string) {
	NewErrorResponse(message).SendJSON(w, http.StatusUnauthorized)
}

// Forbidden sends a 403 error response
func Forbidden(w http.ResponseWriter, message string) {
	NewErrorResponse(message).SendJSON(w, http.StatusForbidden)
}

// NotFound sends a 404 error response
func NotFound(w http.ResponseWriter, message string) {
	NewErrorResponse(message).SendJSON(w, http.StatusNotFound)
}

// InternalError sends a 500 error response
func InternalError(w http.ResponseWriter, message string) {
	NewErrorResponse(message).SendJSON(w, http.StatusInternalServerError)
}

// Error maps err onto its status code and sends it. Server-side failures are
// logged as well.
func Error(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %v", err)
	}
	resp := NewErrorResponse(err.Error())
	if details := apperrors.DetailsOf(err); details != nil {
		resp.Data = details
	}
	resp.SendJSON(w, status)
}

// Decode reads a JSON body into v, answering 400 "Invalid JSON" when it
// cannot. An empty body leaves v untouched.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "Invalid JSON")
		return false
	}
	return true
}
