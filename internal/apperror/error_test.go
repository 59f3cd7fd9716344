package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"not authorized", NotAuthorized("no"), http.StatusForbidden},
		{"invalid or expired", InvalidOrExpired(), http.StatusBadRequest},
		{"delivery failed", DeliveryFailed(errors.New("smtp down")), http.StatusInternalServerError},
		{"store", Store(errors.New("timeout")), http.StatusInternalServerError},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), http.StatusTooManyRequests},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestAs_WrappedError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("issue: %w", Store(cause))

	appErr := As(wrapped)
	assert.Equal(t, KindStore, appErr.Kind)
	assert.ErrorIs(t, appErr, cause)
	assert.True(t, Is(wrapped, KindStore))
	assert.False(t, Is(wrapped, KindValidation))
}

func TestAs_PlainErrorBecomesInternal(t *testing.T) {
	appErr := As(errors.New("boom"))
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Kind.String())
}

func TestInvalidOrExpired_Message(t *testing.T) {
	assert.Equal(t, "Invalid or expired OTP", InvalidOrExpired().Error())
}
