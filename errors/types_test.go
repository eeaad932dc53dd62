package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := New(ErrorTypeValidation, "invalid_login", "bad login")
	assert.Equal(t, "[invalid_login] bad login", err.Error())

	withDetails := New(ErrorTypeNotFound, "target_missing", "user not available").WithDetails("bob")
	assert.Equal(t, "[target_missing] user not available: bob", withDetails.Error())

	wrapped := Wrap(fmt.Errorf("boom"), ErrorTypeInternal, "internal", "something broke")
	assert.Contains(t, wrapped.Error(), "caused by: boom")
	assert.EqualError(t, wrapped.Unwrap(), "boom")
}

func TestTypeOf(t *testing.T) {
	err := NewAuthRequired("login_required", "login first")

	errType, ok := TypeOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeAuthRequired, errType)

	_, ok = TypeOf(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		errType  ErrorType
		expected bool
	}{
		{name: "matching validation", err: NewValidation("x", "y"), errType: ErrorTypeValidation, expected: true},
		{name: "mismatched type", err: NewValidation("x", "y"), errType: ErrorTypeNotFound, expected: false},
		{name: "plain error", err: fmt.Errorf("plain"), errType: ErrorTypeValidation, expected: false},
		{name: "not found", err: NewNotFound("x", "y"), errType: ErrorTypeNotFound, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsType(tt.err, tt.errType))
		})
	}
}
