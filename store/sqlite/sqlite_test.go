package sqlite_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	launcher "github.com/ligne12/nockpool-miner-launcher"
	"github.com/ligne12/nockpool-miner-launcher/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) launcher.Store {
	t.Helper()
	s, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(version string, at time.Time) launcher.VersionRecord {
	return launcher.VersionRecord{
		Version:     version,
		Digest:      digest.FromString("miner " + version),
		Size:        int64(len(version)) * 1024,
		InstalledAt: at,
	}
}

func TestSaveAndGetVersion(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	want := record("1.2.3", time.Now())
	require.NoError(t, s.SaveVersion(ctx, want))

	got, err := s.GetVersion(ctx, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Digest, got.Digest)
	assert.Equal(t, want.Size, got.Size)
	assert.WithinDuration(t, want.InstalledAt, got.InstalledAt, time.Second)
}

func TestGetVersionNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetVersion(context.Background(), "9.9.9")
	var notFound launcher.ErrVersionNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "9.9.9", notFound.Version)
}

func TestSaveVersionUpserts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveVersion(ctx, record("1.0.0", time.Now())))
	updated := record("1.0.0", time.Now().Add(time.Hour))
	updated.Size = 42
	require.NoError(t, s.SaveVersion(ctx, updated))

	got, err := s.GetVersion(ctx, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Size)

	recs, err := s.ListVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestListVersionsOrdersByInstallTime(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.SaveVersion(ctx, record("1.1.0", base.Add(time.Hour))))
	require.NoError(t, s.SaveVersion(ctx, record("1.0.0", base)))
	require.NoError(t, s.SaveVersion(ctx, record("1.2.0", base.Add(2*time.Hour))))

	recs, err := s.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "1.0.0", recs[0].Version)
	assert.Equal(t, "1.1.0", recs[1].Version)
	assert.Equal(t, "1.2.0", recs[2].Version)
}

func TestDeleteVersion(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveVersion(ctx, record("1.0.0", time.Now())))
	require.NoError(t, s.DeleteVersion(ctx, "1.0.0"))

	_, err := s.GetVersion(ctx, "1.0.0")
	assert.Error(t, err)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, s.DeleteVersion(ctx, "1.0.0"))
}

func TestLastCheckRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	got, err := s.LastCheck(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "no recorded check must read as zero time")

	now := time.Now()
	require.NoError(t, s.SetLastCheck(ctx, now))

	got, err = s.LastCheck(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, now, got, time.Second)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s, err := sqlite.New(ctx, dbPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.SaveVersion(ctx, record("1.0.0", time.Now())))
	require.NoError(t, s.Close())

	s, err = sqlite.New(ctx, dbPath, testLogger())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetVersion(ctx, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got.Version)
}
