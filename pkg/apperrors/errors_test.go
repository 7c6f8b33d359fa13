package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationCarriesFields(t *testing.T) {
	err := Validation("invalid course", map[string]string{"price": "must be between 0 and 1000"})

	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode())
	assert.Equal(t, ErrValidation, err.Code())
	assert.Equal(t, "must be between 0 and 1000", err.Fields()["price"])
}

func TestWithFieldsDoesNotMutateOriginal(t *testing.T) {
	base := New("bad", http.StatusBadRequest, ErrValidation, nil)
	withFields := base.WithFields(map[string]string{"name": "required"})

	assert.Nil(t, base.Fields())
	assert.NotNil(t, withFields.Fields())
}

func TestWrapKeepsExistingAppError(t *testing.T) {
	inner := NotFound("course not found", nil)
	wrapped := fmt.Errorf("loading: %w", inner)

	got := Wrap(wrapped, "ignored", http.StatusInternalServerError, ErrInternal)
	assert.Same(t, inner, got)
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestWrapPlainError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x", http.StatusInternalServerError, ErrInternal))

	got := Wrap(errors.New("boom"), "failed", http.StatusInternalServerError, ErrInternal)
	assert.Equal(t, "failed: boom", got.Error())
	assert.Equal(t, "failed", got.Message())
}
