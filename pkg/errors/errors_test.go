package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := stderrors.New("pq: connection reset")
	err := NewDatabaseError("Failed to create waitlist entry", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "DATABASE_ERROR: Failed to create waitlist entry: pq: connection reset", err.Error())
	assert.Equal(t, "NOT_FOUND: missing", NewNotFoundError("missing", nil).Error())
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, "", GetErrorType(nil))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(fmt.Errorf("lookup: %w", NewNotFoundError("missing", nil))))

	assert.True(t, IsNotFound(NewNotFoundError("missing", nil)))
	assert.True(t, IsInvalidRequest(NewInvalidRequestError("bad", nil)))
	assert.False(t, IsNotFound(NewInternalServerError("boom", nil)))
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("x", nil), http.StatusNotFound},
		{NewInvalidRequestError("x", nil), http.StatusBadRequest},
		{NewAppError(ErrorTypeConflict, "x", nil), http.StatusConflict},
		{NewAppError(ErrorTypeRateLimitExceeded, "x", nil), http.StatusTooManyRequests},
		{NewAppError(ErrorTypeRequestTimeout, "x", nil), http.StatusRequestTimeout},
		{NewDatabaseError("x", nil), http.StatusInternalServerError},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), "%v", tt.err)
	}
}

func TestGetHumanReadableMessage_HidesCause(t *testing.T) {
	err := NewDatabaseError("Failed to create waitlist entry", stderrors.New("password authentication failed"))

	assert.Equal(t, "Failed to create waitlist entry", GetHumanReadableMessage(err))
	assert.Equal(t, genericMessage, GetHumanReadableMessage(stderrors.New("driver detail")))
	assert.Equal(t, genericMessage, GetHumanReadableMessage(nil))
	assert.Equal(t, genericMessage, GetHumanReadableMessage(NewInternalServerError("", nil)))
}

type signup struct {
	Email       string   `json:"email" validate:"required,email,max=20"`
	Preferences []string `json:"preferences" validate:"dive,min=2"`
	Code        string   `validate:"len=4"`
}

func TestFormatValidationErrors_Validator(t *testing.T) {
	v := validator.New()

	err := v.Struct(signup{Email: "not-an-email", Preferences: []string{"ok", "x"}, Code: "123"})
	require.Error(t, err)

	fields := FormatValidationErrors(err, &signup{})
	assert.Equal(t, []ValidationErrorResponse{
		{Field: "email", Message: "Invalid email format"},
		{Field: "preferences[1]", Message: "Must be at least 2 characters"},
		{Field: "Code", Message: "Must be exactly 4 characters"},
	}, fields)

	fields = FormatValidationErrors(v.Struct(signup{Code: "1234"}), signup{})
	assert.Equal(t, []ValidationErrorResponse{{Field: "email", Message: "This field is required"}}, fields)
}

func TestFormatValidationErrors_JSONErrors(t *testing.T) {
	var target signup

	syntaxErr := json.Unmarshal([]byte(`{"email":`), &target)
	fields := FormatValidationErrors(syntaxErr, &target)
	require.Len(t, fields, 1)
	assert.Equal(t, "body", fields[0].Field)

	typeErr := json.Unmarshal([]byte(`{"email": 42}`), &target)
	fields = FormatValidationErrors(typeErr, &target)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Field)
	assert.Contains(t, fields[0].Message, "Expected string")
}

func TestFormatValidationErrors_Unrecognised(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(nil, nil))
	assert.Nil(t, FormatValidationErrors(stderrors.New("unexpected EOF"), &signup{}))
}
