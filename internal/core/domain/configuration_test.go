package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration_Valid(t *testing.T) {
	cfg, err := NewConfiguration("payments", 1, map[string]any{"key": "value"})
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, "payments", cfg.Service)
	assert.Equal(t, 1, cfg.Version)
	assert.True(t, cfg.CreatedAt.IsZero(), "timestamp belongs to the store")
}

func TestNewConfiguration_UniqueIDs(t *testing.T) {
	a, err := NewConfiguration("payments", 1, map[string]any{})
	require.NoError(t, err)
	b, err := NewConfiguration("payments", 2, map[string]any{})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewConfiguration_EmptyService(t *testing.T) {
	_, err := NewConfiguration("", 1, map[string]any{})
	assert.ErrorIs(t, err, ErrServiceRequired)
}

func TestNewConfiguration_InvalidVersion(t *testing.T) {
	for _, version := range []int{0, -1} {
		_, err := NewConfiguration("payments", version, map[string]any{})
		assert.ErrorIs(t, err, ErrVersionInvalid)
	}
}

func TestNewConfiguration_NilPayload(t *testing.T) {
	_, err := NewConfiguration("payments", 1, nil)
	assert.ErrorIs(t, err, ErrPayloadRequired)
}

func TestNewConfiguration_EmptyPayloadAllowed(t *testing.T) {
	_, err := NewConfiguration("payments", 1, map[string]any{})
	assert.NoError(t, err)
}
