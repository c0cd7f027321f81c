package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCauseButNotMessage(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:7687: connection refused")
	err := Wrap(cause, CodeInternal, "failed to create identity")

	// The cause stays reachable for logs and errors.Is.
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	// But the caller-safe message never mentions it.
	assert.Equal(t, "failed to create identity", MessageOf(err))
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "email already registered")
	outer := fmt.Errorf("register: %w", inner)

	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
	assert.False(t, HasCode(nil, CodeConflict))
}

func TestUncodedErrorsDefaultToInternal(t *testing.T) {
	plain := errors.New("pq: deadlock detected")

	assert.Equal(t, CodeInternal, CodeOf(plain))
	assert.Equal(t, "internal error", MessageOf(plain))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeInvariantViolation: http.StatusBadRequest,
		CodeConflict:           http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeNotFound:           http.StatusNotFound,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
