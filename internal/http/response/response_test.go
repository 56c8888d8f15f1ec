package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK_NullDataIsSerialized(t *testing.T) {
	body, err := json.Marshal(OK("", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":null}`, string(body))
}

func TestError_ExposeFlag(t *testing.T) {
	internal := errors.New("pq: connection refused")

	for _, expose := range []bool{true, false} {
		var got ErrorResponse
		h := ExposeErrors(expose)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusInternalServerError, Error(r, "Server error", internal))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.False(t, got.Success)
		assert.Equal(t, "Server error", got.Message)
		if expose {
			assert.Equal(t, internal.Error(), got.Error)
		} else {
			assert.Empty(t, got.Error)
		}
	}
}

func TestError_NoMiddlewareHidesDetails(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Error(r, "Server error", errors.New("secret")).Error)
}

func TestValidationError(t *testing.T) {
	type req struct {
		Name     string `validate:"required"`
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
		Role     string `validate:"omitempty,oneof=user admin"`
	}
	err := validator.New().Struct(req{Email: "nope", Password: "123", Role: "root"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.ElementsMatch(t, []string{
		"name is required",
		"email must be a valid email",
		"password must be at least 6 characters",
		"role must be one of: user admin",
	}, resp.Errors)
}
