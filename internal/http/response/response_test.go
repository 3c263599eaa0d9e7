package response_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
)

type signup struct {
	FirstName string `validate:"required"`
	Email     string `validate:"required,email"`
	Password2 string `validate:"required,max=4"`
}

func TestValidationError(t *testing.T) {
	err := validator.New().Struct(signup{Email: "nope", Password2: "toolong"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	got := response.ValidationError(verrs)
	assert.Equal(t, response.StatusError, got.Status)
	assert.Equal(t, map[string]string{
		"first_name": "This field is required.",
		"email":      "Enter a valid email address.",
		"password2":  "Ensure this field has no more than 4 characters.",
	}, got.Fields)
	assert.Contains(t, got.Error, "field first_name")
}

func TestFields(t *testing.T) {
	got := response.Fields(map[string]string{"password": "Password fields didn't match."})
	assert.Equal(t, "Error", got.Status)
	assert.Equal(t, "Password fields didn't match.", got.Fields["password"])
}

func TestError(t *testing.T) {
	assert.Equal(t, response.ErrorResponse{Status: "Error", Error: "boom"}, response.Error("boom"))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestNewValidator_UsesJSONNames(t *testing.T) {
	err := response.NewValidator().Struct(loginRequest{})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	got := response.ValidationError(verrs)
	assert.Contains(t, got.Fields, "email")
	assert.Contains(t, got.Fields, "password")
}
