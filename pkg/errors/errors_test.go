package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, "", GetErrorType(nil))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(fmt.Errorf("plain")))
	assert.Equal(t, ErrorTypeDatabaseError, GetErrorType(NewDatabaseError("save failed", io.ErrClosedPipe)))

	wrapped := fmt.Errorf("service: %w", NewInvalidRequestError("email is blank", nil))
	assert.Equal(t, ErrorTypeInvalidRequest, GetErrorType(wrapped))
	assert.True(t, IsInvalidRequest(wrapped))
}

func TestAppError_UnwrapsCause(t *testing.T) {
	err := NewDatabaseError("save failed", io.ErrClosedPipe)

	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, "DATABASE_ERROR: save failed: io: read/write on closed pipe", err.Error())
	assert.Equal(t, "INVALID_REQUEST: blank", NewInvalidRequestError("blank", nil).Error())
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", NewInvalidRequestError("blank", nil), StatusBadRequest},
		{"database", NewDatabaseError("down", nil), StatusInternalServerError},
		{"internal", NewInternalServerError("boom", nil), StatusInternalServerError},
		{"untyped", fmt.Errorf("boom"), StatusInternalServerError},
		{"nil", nil, StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

type signup struct {
	Email   string `json:"email" validate:"required,max=5"`
	Country string `json:"country" validate:"required"`
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	err := validator.New().Struct(&signup{Email: "toolong@x.io"})
	require.Error(t, err)

	fields := FormatValidationErrors(err, &signup{})

	assert.ElementsMatch(t, []ValidationErrorResponse{
		{Field: "email", Message: "Email must not exceed 5 characters"},
		{Field: "country", Message: "Country is required"},
	}, fields)
}

func TestFormatValidationErrors_DecodeErrors(t *testing.T) {
	var target signup

	syntaxErr := json.Unmarshal([]byte(`not json`), &target)
	assert.Equal(t, []ValidationErrorResponse{{Field: "body", Message: "Malformed JSON"}}, FormatValidationErrors(syntaxErr, &target))

	typeErr := json.Unmarshal([]byte(`{"email":42}`), &target)
	assert.Equal(t, []ValidationErrorResponse{{Field: "email", Message: "Email must be a string, got number"}}, FormatValidationErrors(typeErr, &target))

	rootErr := json.Unmarshal([]byte(`[]`), &target)
	assert.Equal(t, []ValidationErrorResponse{{Field: "body", Message: "Request body must be a JSON object"}}, FormatValidationErrors(rootErr, &target))

	assert.Equal(t, "Request body is empty", FormatValidationErrors(io.EOF, &target)[0].Message)
	assert.Equal(t, "Malformed JSON", FormatValidationErrors(io.ErrUnexpectedEOF, &target)[0].Message)
}

func TestFormatValidationErrors_UnknownError(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(fmt.Errorf("other"), nil))
	assert.Nil(t, FormatValidationErrors(nil, nil))
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Country", fieldLabel("country"))
	assert.Equal(t, "First name", fieldLabel("first_name"))
	assert.Equal(t, "Value", fieldLabel(""))
}
