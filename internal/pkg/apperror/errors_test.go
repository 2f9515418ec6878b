package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusByCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrHiringNotFound, http.StatusNotFound},
		{Forbidden(), http.StatusForbidden},
		{OrderViolation("сначала %s", "этап 1"), http.StatusForbidden},
		{Validation("плохо"), http.StatusBadRequest},
		{StateConflict("занято"), http.StatusConflict},
		{AlreadyResolved("уже"), http.StatusConflict},
		{External(errors.New("timeout"), "шлюз недоступен"), http.StatusBadGateway},
		{ErrUnauthorized, http.StatusUnauthorized},
		{New(ErrCodeDatabaseError, "db"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus)
		})
	}
}

func TestIsHelpers_UnwrapChains(t *testing.T) {
	err := fmt.Errorf("resolve claim: %w", ErrClaimNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsForbidden(err))
	assert.False(t, IsNotFound(errors.New("not found")))
	assert.False(t, IsStateConflict(nil))

	cause := errors.New("connection reset")
	ext := External(cause, "шлюз недоступен")
	assert.True(t, IsExternal(ext))
	assert.ErrorIs(t, ext, cause)
	assert.Contains(t, ext.Error(), "connection reset")
}

func TestForbidden_OpaqueMessage(t *testing.T) {
	assert.Equal(t, "FORBIDDEN: действие не разрешено", Forbidden().Error())
}
