package handlers

const (
	CSRFHeaderName = "X-CSRF-Token"

	ErrInvalidRequest      = "Invalid request body"
	ErrInvalidCSRF         = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInternalServerError = "Internal server error"
	ErrSessionNotFound     = "Game session not found"
	ErrHandoffNotFound     = "Nothing to continue from, please start again"
	ErrBackendUnavailable  = "The backend could not be reached"
)
