// Package apierror provides the standardized error envelope for all HTTP
// error responses, so internal details (driver errors, stack traces) never
// leak to clients.
package apierror

type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}
