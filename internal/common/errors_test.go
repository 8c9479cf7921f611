package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestContractError(t *testing.T) {
	err := NewInputContractError(3, "missing classification")
	assert.True(t, errors.Is(err, ErrInputContract))
	assert.Equal(t, "input contract violation: page 3: missing classification", err.Error())

	wrapped := fmt.Errorf("segment: %w", NewInputContractError(0, "%d pages", 0))
	var ce *ContractError
	require.ErrorAs(t, wrapped, &ce)
	assert.Zero(t, ce.Page)
	assert.Equal(t, "input contract violation: 0 pages", ce.Error())
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("catalog", "empty")
	assert.True(t, IsConfigError(err))
	assert.Equal(t, "CONFIG_ERROR: catalog: empty: configuration error", err.Error())
	assert.False(t, IsConfigError(errors.New("other")))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ctx"))
	err := WrapError(ErrNotFound, "get run")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "get run: resource not found", err.Error())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{NewInputContractError(1, "gap"), codes.InvalidArgument},
		{fmt.Errorf("%w: bad ext", ErrInvalidInput), codes.InvalidArgument},
		{NewConfigError("x", "y"), codes.FailedPrecondition},
		{fmt.Errorf("%w: run", ErrNotFound), codes.NotFound},
		{ErrDatabase, codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(ToStatus(tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
	}
	assert.Nil(t, ToStatus(nil))
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("name", "", Required).
		Field("list", []string{}, Required).
		Field("ratio", 1.5, Between(0, 1)).
		Field("count", 0, Positive).
		Field("offset", -1, NonNegative).
		Field("mode", "x", OneOf("a", "b")).
		Field("kind", "word", Positive)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 7)
	assert.ErrorIs(t, v.Error(nil), ErrValidation)
	assert.Contains(t, v.ErrorMessage(), "must be one of a, b")

	ok := NewValidator().Field("name", "x", Required).Field("ratio", 0.5, Between(0, 1))
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ok.Error(ErrConfiguration))
	assert.Empty(t, ok.ErrorMessage())
}

func TestLoggerFor(t *testing.T) {
	ctx := WithContentHash(WithRunID(context.Background(), "run-1"), "abc")
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Equal(t, "abc", ContentHashFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.NotNil(t, LoggerFor(ctx, nil))
}
