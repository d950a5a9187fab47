package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "alert", err: NewAlert(errors.New("tampered")), want: http.StatusInternalServerError},
		{name: "unauthorized", err: NewBusiness("invalid code", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "too many", err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "conflict", err: NewBusiness("exists", CodeConflict), want: http.StatusConflict},
		{name: "invalid input", err: NewInvalidInput(nil, "code", "required"), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "odd kv", err: NewInvalidInput(nil, "code"), want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestWrapBusiness_KeepsCause(t *testing.T) {
	cause := errors.New("kind")
	err := WrapBusiness(cause, "invalid code", CodeUnauthorized)

	assert.ErrorIs(t, err, cause)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "invalid code", gerr.Msg())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.False(t, gerr.Alert())
}

func TestNewAlert(t *testing.T) {
	cause := errors.New("cipher: message authentication failed")
	var gerr *Error
	require.ErrorAs(t, NewAlert(cause), &gerr)

	assert.True(t, gerr.Alert())
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.ErrorIs(t, gerr, cause)
}

func TestNewInvalidInput_Fields(t *testing.T) {
	var gerr *Error
	require.ErrorAs(t, NewInvalidInput(nil, "password", "required", "code", "too short"), &gerr)
	assert.Equal(t, map[string]string{"password": "required", "code": "too short"}, gerr.Fields())
}
