package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/go-playground/validator/v10"
)

const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeAuthRequired      = "AUTHENTICATION_REQUIRED"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeResourceNotFound  = "RESOURCE_NOT_FOUND"
	CodeStorageCorruption = "STORAGE_CORRUPTION"
	CodeConflict          = "CONFLICT"
	CodeInternalError     = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// additional error context
type ErrorContext map[string]interface{}

// builder pattern
type ErrorBuilder struct {
	Code    string
	Message string
	Details []ErrorDetail
	Context ErrorContext
}

type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Context ErrorContext  `json:"context,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewError(code, message string) *ErrorBuilder {
	return &ErrorBuilder{Code: code, Message: message}
}

func (e *ErrorBuilder) WithDetails(details []ErrorDetail) *ErrorBuilder {
	e.Details = details
	return e
}

func (e *ErrorBuilder) WithContext(context ErrorContext) *ErrorBuilder {
	e.Context = context
	return e
}

func (e *ErrorBuilder) Create() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Context: e.Context,
	}}
}

// Write renders the error envelope with status.
func (e *ErrorBuilder) Write(w http.ResponseWriter, status int) {
	writeJSON(w, status, e.Create())
}

// builder pattern extensions

func Unauthorized(msg string) *ErrorBuilder {
	return NewError(CodeAuthRequired, msg)
}

func PermissionDenied(msg string) *ErrorBuilder {
	return NewError(CodePermissionDenied, msg)
}

func NotFound(resource string) *ErrorBuilder {
	return NewError(CodeResourceNotFound, resource+" not found")
}

func ValidationErr(msg string, details []ErrorDetail) *ErrorBuilder {
	return NewError(CodeValidationError, msg).WithDetails(details)
}

func StorageCorruptionErr(msg string) *ErrorBuilder {
	return NewError(CodeStorageCorruption, msg)
}

func InternalError(msg string) *ErrorBuilder {
	return NewError(CodeInternalError, msg)
}

func ConflictErr(msg string) *ErrorBuilder {
	return NewError(CodeConflict, msg)
}

// errorFor maps a service error onto a status and envelope. Unknown errors
// become 500 without leaking their text.
func errorFor(err error) (int, *ErrorBuilder) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, ValidationErr("Request validation failed", validationDetails(verrs))
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, ValidationErr(err.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, Unauthorized("Invalid email or password")
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, Unauthorized("Authentication required")
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, PermissionDenied("Insufficient permissions")
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, NotFound("Resource")
	case errors.Is(err, apperr.ErrStorageCorruption):
		return http.StatusInternalServerError, StorageCorruptionErr("Stored file is missing or unreadable")
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, ConflictErr("Resource already exists")
	default:
		return http.StatusInternalServerError, InternalError("An unexpected error occurred")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorFor(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "code", body.Code)
	} else {
		logger.Debug("Request rejected", "error", err, "code", body.Code)
	}

	body.Write(w, status)
}

func validationDetails(verrs validator.ValidationErrors) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ErrorDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode response", "error", err)
	}
}
