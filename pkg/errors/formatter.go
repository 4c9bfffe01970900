package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse names one rejected field using its JSON name.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messageByTag = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"len":      "Value must be exact length",
	"url":      "Invalid URL format",
}

var paramMessageByTag = map[string]string{
	"min": "Must be at least %s characters",
	"max": "Must not exceed %s characters",
	"len": "Must be exactly %s characters",
}

func messageFor(fe validator.FieldError) string {
	if format, ok := paramMessageByTag[fe.Tag()]; ok && fe.Param() != "" {
		return fmt.Sprintf(format, fe.Param())
	}
	if msg, ok := messageByTag[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// jsonFieldName maps a struct field to its json tag; slice elements keep their index suffix.
func jsonFieldName(structType reflect.Type, fe validator.FieldError) string {
	name := fe.Field()
	if structType == nil {
		return name
	}

	base, suffix := name, ""
	if i := strings.IndexByte(name, '['); i > 0 {
		base, suffix = name[:i], name[i:]
	}

	field, found := structType.FieldByName(base)
	if !found {
		return name
	}

	tag := strings.Split(field.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return name
	}
	return tag + suffix
}

// FormatValidationErrors turns a bind error into per-field messages. It returns nil for errors
// that do not point at a field, such as a truncated body.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []ValidationErrorResponse{{
			Field:   "body",
			Message: fmt.Sprintf("Malformed JSON at offset %d", syntaxErr.Offset),
		}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		for structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
		if structType.Kind() != reflect.Struct {
			structType = nil
		}
	}

	out := make([]ValidationErrorResponse, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, ValidationErrorResponse{
			Field:   jsonFieldName(structType, fe),
			Message: messageFor(fe),
		})
	}
	return out
}
