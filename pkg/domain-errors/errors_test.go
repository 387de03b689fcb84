package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "participant not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches wrapped code", func(t *testing.T) {
		cause := New(CodeConflict, "version mismatch")
		err := Wrap(cause, CodeInternal, "failed to update participant")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("operation failed: %w", New(CodeValidation, "notes required"))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause stays nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause reachable via errors.Is", func(t *testing.T) {
		cause := errors.New("driver: bad connection")
		err := Wrap(cause, CodeUnavailable, "store unreachable")
		assert.ErrorIs(t, err, cause)
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvalidTransition:  http.StatusConflict,
		CodeInvariantViolation: http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeUnavailable:        http.StatusServiceUnavailable,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
