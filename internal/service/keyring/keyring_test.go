package keyring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/internal/domain"
	"github.com/profescore/review-extractor/internal/service/keyring"
)

func TestNew_EmptyFails(t *testing.T) {
	t.Parallel()
	_, err := keyring.New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestCurrentAndRotate(t *testing.T) {
	t.Parallel()
	kr, err := keyring.New([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "a", kr.Current())
	assert.Equal(t, "b", kr.Rotate())
	assert.Equal(t, "b", kr.Current())
	assert.Equal(t, "c", kr.Rotate())
	assert.Equal(t, "a", kr.Rotate())
}

func TestRotate_CircularReturnsToStart(t *testing.T) {
	t.Parallel()
	keys := []string{"k1", "k2", "k3", "k4"}
	kr, err := keyring.New(keys)
	require.NoError(t, err)
	start := kr.Current()
	for i := 0; i < len(keys); i++ {
		kr.Rotate()
	}
	assert.Equal(t, start, kr.Current())
}

func TestRotate_SingleKey(t *testing.T) {
	t.Parallel()
	kr, err := keyring.New([]string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", kr.Rotate())
	assert.Equal(t, "only", kr.Current())
}
