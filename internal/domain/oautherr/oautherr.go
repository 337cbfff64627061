package oautherr

import (
	"errors"
	"net/http"
)

// Code is an OAuth2 error code as defined by RFC 6749 section 5.2
type Code string

const (
	InvalidRequest       Code = "invalid_request"
	InvalidClient        Code = "invalid_client"
	InvalidGrant         Code = "invalid_grant"
	InvalidToken         Code = "invalid_token"
	UnsupportedGrantType Code = "unsupported_grant_type"
	ServerError          Code = "server_error"
)

// Error is a protocol-level OAuth2 error carrying the wire code and a
// human readable description. Handlers render it as the standard
// {"error","error_description"} JSON body.
type Error struct {
	Code        Code
	Description string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Description
}

// HTTPStatus returns the HTTP status associated with the error code
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case InvalidClient, InvalidToken:
		return http.StatusUnauthorized
	case ServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new OAuth2 error
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// As extracts an *Error from err, unwrapping if needed
func As(err error) (*Error, bool) {
	var oe *Error
	ok := errors.As(err, &oe)
	return oe, ok
}
