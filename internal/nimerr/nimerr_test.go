package nimerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"typed", New(Unauthorized, "bad key"), Unauthorized},
		{"wrapped typed", fmt.Errorf("outer: %w", New(NotFound, "gone")), NotFound},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), Canceled},
		{"plain", errors.New("boom"), Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_PreservesExistingKind(t *testing.T) {
	inner := New(Forbidden, "no access")
	got := Wrap(Internal, fmt.Errorf("ctx: %w", inner), "adapter failed")
	assert.Same(t, inner, got)
}

func TestWrap_AppendsCause(t *testing.T) {
	cause := errors.New("connection reset")
	got := Wrap(NetworkFailure, cause, "send request")
	assert.Equal(t, NetworkFailure, got.Kind)
	assert.Equal(t, "send request: connection reset", got.Error())
	assert.ErrorIs(t, got, cause)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "InvalidArgument: prompt is empty", Describe(New(InvalidArgument, "prompt is empty")))
	assert.Equal(t, "Internal: boom", Describe(errors.New("boom")))
	assert.Empty(t, Describe(nil))
}

func TestFrom(t *testing.T) {
	require.Nil(t, From(nil))

	e := From(context.Canceled)
	require.NotNil(t, e)
	assert.Equal(t, Canceled, e.Kind)
}

func TestKind_IsUsage(t *testing.T) {
	assert.True(t, MissingCredential.IsUsage())
	assert.True(t, InvalidArgument.IsUsage())
	assert.True(t, UnknownOperation.IsUsage())
	assert.False(t, NetworkFailure.IsUsage())
	assert.False(t, Unauthorized.IsUsage())
}
