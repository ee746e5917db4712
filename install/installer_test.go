package install_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	launcher "github.com/ligne12/nockpool-miner-launcher"
	"github.com/ligne12/nockpool-miner-launcher/config"
	"github.com/ligne12/nockpool-miner-launcher/install"
	"github.com/ligne12/nockpool-miner-launcher/release"
)

// memStore is an in-memory launcher.Store for tests.
type memStore struct {
	mu        sync.Mutex
	versions  map[string]launcher.VersionRecord
	lastCheck time.Time
}

func newMemStore() *memStore {
	return &memStore{versions: make(map[string]launcher.VersionRecord)}
}

func (s *memStore) SaveVersion(_ context.Context, rec launcher.VersionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[rec.Version] = rec
	return nil
}

func (s *memStore) DeleteVersion(_ context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, version)
	return nil
}

func (s *memStore) GetVersion(_ context.Context, version string) (launcher.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.versions[version]
	if !ok {
		return launcher.VersionRecord{}, launcher.ErrVersionNotFound{Version: version}
	}
	return rec, nil
}

func (s *memStore) ListVersions(_ context.Context) ([]launcher.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]launcher.VersionRecord, 0, len(s.versions))
	for _, rec := range s.versions {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *memStore) SetLastCheck(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = t
	return nil
}

func (s *memStore) LastCheck(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck, nil
}

func (s *memStore) Close() error { return nil }

// releaseServer serves a latest-release document plus its asset bytes.
type releaseServer struct {
	srv     *httptest.Server
	mu      sync.Mutex
	tag     string
	name    string
	payload []byte
}

func newReleaseServer(t *testing.T, tag, assetName string, payload []byte) *releaseServer {
	t.Helper()
	rs := &releaseServer{tag: tag, name: assetName, payload: payload}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/SWPSCO/nockpool-miner/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		fmt.Fprintf(w, `{"tag_name": %q, "assets": [{"name": %q, "browser_download_url": %q}]}`,
			rs.tag, rs.name, rs.srv.URL+"/download/"+rs.name)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		w.Write(rs.payload)
	})
	rs.srv = httptest.NewServer(mux)
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *releaseServer) publish(tag string, payload []byte) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.tag = tag
	rs.payload = payload
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newInstaller(t *testing.T, rs *releaseServer, store launcher.Store) (*install.Installer, config.InstallDirs) {
	t.Helper()
	dirs, err := config.NewInstallDirs(filepath.Join(t.TempDir(), "miner"))
	require.NoError(t, err)
	client := release.NewClient(release.WithBaseURL(rs.srv.URL))
	ins := install.New(dirs, store, client, "SWPSCO", "nockpool-miner", testLogger())
	ins.SetPlatform(launcher.Platform{OS: "linux", Arch: "x86_64"})
	return ins, dirs
}

func TestInstalledVersionWhenEmpty(t *testing.T) {
	ins, _ := newInstaller(t, newReleaseServer(t, "v1.0.0", "nockpool-miner-linux-x86_64", nil), newMemStore())

	_, err := ins.InstalledVersion()
	var notInstalled launcher.ErrNotInstalled
	assert.ErrorAs(t, err, &notInstalled)
}

func TestEnsureLatestInstalls(t *testing.T) {
	payload := []byte("miner v1")
	rs := newReleaseServer(t, "v1.0.0", "nockpool-miner-linux-x86_64", payload)
	store := newMemStore()
	ins, dirs := newInstaller(t, rs, store)

	version, updated, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "1.0.0", version)

	// The binary landed under versions/ and is executable.
	bin := filepath.Join(dirs.VersionDir("1.0.0"), launcher.BinaryName)
	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	info, err := os.Stat(bin)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// The current symlink points at the version directory.
	got, err := ins.InstalledVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got)
	assert.Equal(t, payload, mustRead(t, ins.BinaryPath()))

	// The manifest records the install.
	rec, err := store.GetVersion(context.Background(), "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), rec.Size)
	assert.NotEmpty(t, rec.Digest)

	// Staging left nothing behind.
	entries, err := os.ReadDir(dirs.Staging())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureLatestIsIdempotent(t *testing.T) {
	rs := newReleaseServer(t, "v1.0.0", "nockpool-miner-linux-x86_64", []byte("miner v1"))
	ins, _ := newInstaller(t, rs, newMemStore())

	_, updated, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)
	require.True(t, updated)

	version, updated, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)
	assert.False(t, updated, "same tag must not reinstall")
	assert.Equal(t, "1.0.0", version)
}

func TestEnsureLatestUpgrades(t *testing.T) {
	rs := newReleaseServer(t, "v1.0.0", "nockpool-miner-linux-x86_64", []byte("miner v1"))
	ins, _ := newInstaller(t, rs, newMemStore())

	_, _, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)

	rs.publish("v1.1.0", []byte("miner v2"))
	version, updated, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "1.1.0", version)
	assert.Equal(t, []byte("miner v2"), mustRead(t, ins.BinaryPath()))

	// The previous version stays on disk for rollback by hand.
	got, err := ins.InstalledVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", got)
}

func TestInstallZippedPackage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(launcher.BinaryName)
	require.NoError(t, err)
	_, err = w.Write([]byte("mac miner"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rs := newReleaseServer(t, "v2.0.0", "nockpool-miner-macos-aarch64.zip", buf.Bytes())
	ins, _ := newInstaller(t, rs, newMemStore())
	ins.SetPlatform(launcher.Platform{OS: "macos", Arch: "aarch64"})

	_, updated, err := ins.EnsureLatest(context.Background())
	require.NoError(t, err)
	require.True(t, updated)
	assert.Equal(t, []byte("mac miner"), mustRead(t, ins.BinaryPath()))
}

func TestInstallNoMatchingAsset(t *testing.T) {
	rs := newReleaseServer(t, "v1.0.0", "nockpool-miner-windows-x86_64", []byte("nope"))
	ins, _ := newInstaller(t, rs, newMemStore())

	_, _, err := ins.EnsureLatest(context.Background())
	var noAsset launcher.ErrNoAsset
	assert.ErrorAs(t, err, &noAsset)
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
