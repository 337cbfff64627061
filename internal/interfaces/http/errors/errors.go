package errors

import (
	"encoding/json"
	"net/http"

	"github.com/ipede/metals-portfolio-service/internal/domain/oautherr"
)

// OAuthErrorResponse is the RFC 6749 error body rendered by the OAuth and
// resource endpoints
type OAuthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ErrorResponse is the error body of the non-OAuth API surface
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents a validation error detail
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes for the non-OAuth API surface
const (
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeAuthentication = "ERR_AUTHENTICATION"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeConflict       = "ERR_CONFLICT"
	ErrCodeInternal       = "ERR_INTERNAL"
)

// RespondWithOAuthError renders an OAuth2 protocol error with its
// associated HTTP status
func RespondWithOAuthError(w http.ResponseWriter, err *oautherr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(err.HTTPStatus())
	json.NewEncoder(w).Encode(OAuthErrorResponse{
		Error:            string(err.Code),
		ErrorDescription: err.Description,
	})
}

// RespondUnauthorized renders the single opaque 401 used by resource
// endpoints, regardless of which verification check failed
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	RespondWithOAuthError(w, oautherr.New(oautherr.InvalidToken, ""))
}

// RespondWithError sends a standardized API error response
func RespondWithError(w http.ResponseWriter, code string, message string, details []ErrorDetail, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ValidationErrors collects field-level validation failures
type ValidationErrors []ErrorDetail

// Add adds a validation error
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ErrorDetail{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}
