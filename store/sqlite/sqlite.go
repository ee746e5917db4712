// Package sqlite persists the install manifest: which miner versions
// this launcher has installed, and when it last checked for updates.
//
// The database is opened in WAL mode so a crashed launcher never
// leaves a corrupt manifest, and all queries go through prepared
// statements compiled once at open time. There is a single writer (the
// launcher holds an exclusive flock for its lifetime), so no
// transaction management is needed beyond autocommit.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	launcher "github.com/ligne12/nockpool-miner-launcher"
)

//go:embed schema.sql
var schemaSQL string

const driverName = "sqlite"

// dsn encodes pragmas into the data source name; modernc.org/sqlite
// expects them as _pragma=key(value) query parameters.
func dsn(path string, pragmas [][2]string) string {
	if len(pragmas) == 0 {
		return path
	}
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = fmt.Sprintf("_pragma=%s(%s)", p[0], p[1])
	}
	return path + "?" + strings.Join(params, "&")
}

// store implements launcher.Store using SQLite.
type store struct {
	db     *sql.DB
	logger *slog.Logger

	stmtSaveVersion   *sql.Stmt
	stmtDeleteVersion *sql.Stmt
	stmtGetVersion    *sql.Stmt
	stmtListVersions  *sql.Stmt
	stmtSetState      *sql.Stmt
	stmtGetState      *sql.Stmt
}

// New opens (or creates) the manifest database at dbPath.
func New(ctx context.Context, dbPath string, logger *slog.Logger) (launcher.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(ctx, dbPath, [][2]string{{"journal_mode", "WAL"}, {"busy_timeout", "5000"}}, logger)
}

// NewInMemory opens an in-memory manifest for tests.
func NewInMemory(ctx context.Context, logger *slog.Logger) (launcher.Store, error) {
	return open(ctx, ":memory:", nil, logger)
}

func open(ctx context.Context, path string, pragmas [][2]string, logger *slog.Logger) (launcher.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driverName, dsn(path, pragmas))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &store{db: db, logger: logger.With("component", "store", "db", path)}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	s.logger.Debug("opened install manifest")
	return s, nil
}

func (s *store) prepareStatements() error {
	stmts := []struct {
		name string
		dst  **sql.Stmt
		sql  string
	}{
		{"SaveVersion", &s.stmtSaveVersion, `
			INSERT INTO installed_versions (version, digest, size, installed_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(version) DO UPDATE SET
			  digest = excluded.digest,
			  size = excluded.size,
			  installed_at = excluded.installed_at`},
		{"DeleteVersion", &s.stmtDeleteVersion, `
			DELETE FROM installed_versions WHERE version = ?`},
		{"GetVersion", &s.stmtGetVersion, `
			SELECT version, digest, size, installed_at
			FROM installed_versions WHERE version = ?`},
		{"ListVersions", &s.stmtListVersions, `
			SELECT version, digest, size, installed_at
			FROM installed_versions ORDER BY installed_at`},
		{"SetState", &s.stmtSetState, `
			INSERT INTO launcher_state (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`},
		{"GetState", &s.stmtGetState, `
			SELECT value FROM launcher_state WHERE key = ?`},
	}

	for _, st := range stmts {
		stmt, err := s.db.Prepare(st.sql)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", st.name, err)
		}
		*st.dst = stmt
	}
	return nil
}

// Close releases the prepared statements and the connection.
func (s *store) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.stmtSaveVersion,
		s.stmtDeleteVersion,
		s.stmtGetVersion,
		s.stmtListVersions,
		s.stmtSetState,
		s.stmtGetState,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
