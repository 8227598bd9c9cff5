package handlers

const (
	GuardianTokenHeader = "X-Guardian-Token"
	RequestIDHeader     = "X-Request-ID"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
)
