package pirerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CapturesStack(t *testing.T) {
	err := New(ErrorTypeProtocol, "index out of range")

	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestNew_CapturesStack")
	assert.Equal(t, "protocol: index out of range", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeInput, "ignored"))
	})

	t.Run("preserves stack of structured cause", func(t *testing.T) {
		inner := New(ErrorTypeValidation, "negative value")
		outer := Wrap(inner, ErrorTypeInput, "source rejected")

		assert.Equal(t, inner.Stack, outer.Stack)
		assert.True(t, errors.Is(outer, inner))
	})

	t.Run("keeps cause for errors.Is", func(t *testing.T) {
		base := fmt.Errorf("disk gone")
		err := Wrap(base, ErrorTypeInput, "open failed")

		assert.ErrorIs(t, err, base)
		assert.Equal(t, "input: open failed: disk gone", err.Error())
	})
}

func TestIsType(t *testing.T) {
	validation := New(ErrorTypeValidation, "too large")
	mismatch := New(ErrorTypeMismatch, "recovered 3, expected 2")
	verification := New(ErrorTypeVerification, "proof rejected")

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct", validation, ErrorTypeValidation, true},
		{"other type", validation, ErrorTypeInput, false},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", validation), ErrorTypeValidation, true},
		{"cause of structured", Wrap(validation, ErrorTypeInput, "x"), ErrorTypeValidation, true},
		{"joined first", errors.Join(verification, mismatch), ErrorTypeVerification, true},
		{"joined second", errors.Join(verification, mismatch), ErrorTypeMismatch, true},
		{"plain error", errors.New("plain"), ErrorTypeInternal, false},
		{"nil", nil, ErrorTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeStructural, TypeOf(New(ErrorTypeStructural, "empty")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeInput, TypeOf(fmt.Errorf("x: %w", New(ErrorTypeInput, "missing"))))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeInput, "column not found").WithDetail("column", "price")

	v, ok := err.Detail("column")
	require.True(t, ok)
	assert.Equal(t, "price", v)

	_, ok = err.Detail("row")
	assert.False(t, ok)
}
