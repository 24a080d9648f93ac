package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// msgForTag prefixes the message with the field label, e.g. "Country is required".
func msgForTag(label, tag, param string) string {
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "max":
		if param != "" {
			return fmt.Sprintf("%s must not exceed %s characters", label, param)
		}
		return label + " is too long"
	case "min":
		if param != "" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return label + " is too short"
	default:
		return label + " is invalid"
	}
}

// jsonKind names t the way a JSON client sees it, never as a Go type.
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}

// fieldLabel turns a JSON field name such as "country" or "first_name" into
// "Country" or "First name".
func fieldLabel(jsonField string) string {
	words := strings.Fields(strings.ReplaceAll(jsonField, "_", " "))
	if len(words) == 0 {
		return "Value"
	}
	words[0] = cases.Title(language.English).String(words[0])
	return strings.Join(words, " ")
}

func getJSONFieldName(structType reflect.Type, fieldName string) string {
	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return fieldName
	}

	return strings.Split(jsonTag, ",")[0]
}

// FormatValidationErrors turns a binding error into per-field messages keyed
// by JSON name. It returns an empty slice for errors it does not recognize.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return []ValidationErrorResponse{{Field: "body", Message: "Request body must be a JSON object"}}
		}
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be %s, got %s", fieldLabel(typeErr.Field), jsonKind(typeErr.Type), typeErr.Value),
		}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []ValidationErrorResponse{{Field: "body", Message: "Malformed JSON"}}
	}

	if errors.Is(err, io.EOF) {
		return []ValidationErrorResponse{{Field: "body", Message: "Request body is empty"}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	errorsList := make([]ValidationErrorResponse, len(validationErrors))
	for i, fieldError := range validationErrors {
		jsonField := fieldError.Field()
		if structType != nil {
			jsonField = getJSONFieldName(structType, fieldError.StructField())
		}

		errorsList[i] = ValidationErrorResponse{
			Field:   jsonField,
			Message: msgForTag(fieldLabel(jsonField), fieldError.Tag(), fieldError.Param()),
		}
	}

	return errorsList
}
