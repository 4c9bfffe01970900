package errors

import (
	"errors"
	"net/http"
)

const genericMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeNotFound:            http.StatusNotFound,
	ErrorTypeInvalidRequest:      http.StatusBadRequest,
	ErrorTypeConflict:            http.StatusConflict,
	ErrorTypeRateLimitExceeded:   http.StatusTooManyRequests,
	ErrorTypeRequestTimeout:      http.StatusRequestTimeout,
	ErrorTypeDatabaseError:       http.StatusInternalServerError,
	ErrorTypeInternalServerError: http.StatusInternalServerError,
}

func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage never exposes the wrapped cause; driver and transport errors stay in logs.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericMessage
}
