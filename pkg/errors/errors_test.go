package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", Invalid("missing %s", "itemId"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("token missing"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"not found", NotFound("request not found"), http.StatusNotFound},
		{"conflict", Conflict("already approved"), http.StatusConflict},
		{"duplicate", Duplicate("exists"), http.StatusConflict},
		{"quota", QuotaExceeded(12, 3), http.StatusPaymentRequired},
		{"database", Database(stderrors.New("boom")), http.StatusInternalServerError},
		{"plain", stderrors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapErrorKeepsExistingAppError(t *testing.T) {
	inner := NotFound("gone")
	wrapped := WrapError(fmt.Errorf("ctx: %w", inner), ErrDatabaseError, "db")
	assert.Same(t, inner, wrapped)
	assert.Nil(t, WrapError(nil, ErrDatabaseError, "db"))
}

func TestDatabaseMessageIncludesCause(t *testing.T) {
	err := Database(stderrors.New("syntax error at SELECT"))
	assert.Contains(t, err.Error(), "syntax error at SELECT")
	assert.True(t, Is(err, ErrDatabaseError))
}

func TestQuotaExceededDetails(t *testing.T) {
	err := fmt.Errorf("add: %w", QuotaExceeded(12.5, 3))
	assert.Equal(t, map[string]any{"needed": 12.5, "available": 3.0}, DetailsOf(err))
	assert.Nil(t, DetailsOf(NotFound("x")))
}
