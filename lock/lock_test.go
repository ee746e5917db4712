package lock_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligne12/nockpool-miner-launcher/lock"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.lock")

	g, err := lock.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g.Release())
	assert.NoError(t, g.Release(), "double release is harmless")
}

func TestAcquireReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.lock")

	g, err := lock.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g.Release())

	g2, err := lock.Acquire(path)
	require.NoError(t, err)
	defer g2.Release()
}

func TestAcquireHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.lock")

	g, err := lock.Acquire(path)
	require.NoError(t, err)
	defer g.Release()

	_, err = lock.Acquire(path)
	var held *lock.ErrHeld
	require.ErrorAs(t, err, &held)
	assert.Equal(t, path, held.Path)
}

func TestReleaseNil(t *testing.T) {
	var g *lock.Guard
	assert.NoError(t, g.Release())
}

func TestAcquireBadPath(t *testing.T) {
	_, err := lock.Acquire(filepath.Join(t.TempDir(), "missing", "launcher.lock"))
	assert.Error(t, err)
}
