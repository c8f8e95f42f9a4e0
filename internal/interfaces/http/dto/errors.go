package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain codes pass through to clients unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,

	// 400
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	"INVALID_INPUT":        http.StatusBadRequest,
	"FILE_EMPTY":           http.StatusBadRequest,
	"FILE_TOO_LARGE":       http.StatusBadRequest,
	"SELF_INVITATION":      http.StatusBadRequest,
	"GOOGLE_INVALID_STATE": http.StatusBadRequest,

	// 401
	ErrCodeUnauthorized:         http.StatusUnauthorized,
	"INVALID_CREDENTIALS":       http.StatusUnauthorized,
	"GOOGLE_RECONNECT_REQUIRED": http.StatusUnauthorized,

	// 403
	ErrCodeForbidden:          http.StatusForbidden,
	"ACCESS_DENIED":           http.StatusForbidden,
	"CATEGORY_OWNER_REQUIRED": http.StatusForbidden,
	"OWNER_ACCESS_IMMUTABLE":  http.StatusForbidden,
	"CANNOT_MODIFY_SELF":      http.StatusForbidden,
	"TOPIC_FORBIDDEN":         http.StatusForbidden,

	// 404
	ErrCodeNotFound:          http.StatusNotFound,
	"GOOGLE_NOT_CONNECTED":   http.StatusNotFound,
	"GOOGLE_EVENT_NOT_FOUND": http.StatusNotFound,
	"NO_RECENT_SYNC":         http.StatusNotFound,

	// 409
	ErrCodeConflict:          http.StatusConflict,
	"ALREADY_EXISTS":         http.StatusConflict,
	"ALREADY_HAS_ACCESS":     http.StatusConflict,
	"INVITATION_NOT_PENDING": http.StatusConflict,
	"SYNC_IN_PROGRESS":       http.StatusConflict,
	"SYNC_CANCELLED":         http.StatusConflict,

	// 422
	"INVALID_STATE":            http.StatusUnprocessableEntity,
	"DUE_DATE_IN_PAST":         http.StatusUnprocessableEntity,
	"SUBTASK_DUE_AFTER_PARENT": http.StatusUnprocessableEntity,
	"SUBTASK_NESTING_TOO_DEEP": http.StatusUnprocessableEntity,
	"OVERDUE_STATUS_LOCKED":    http.StatusUnprocessableEntity,
	"PASSWORD_UNCHANGED":       http.StatusUnprocessableEntity,

	// 429
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	// 502
	"GOOGLE_AUTH_FAILED": http.StatusBadGateway,
	"GOOGLE_UNAVAILABLE": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes missing from the table are classified by their naming convention:
// *_NOT_FOUND is 404, *_EXISTS is 409 and INVALID_* is 400. Anything else is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
