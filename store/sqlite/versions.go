package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"

	launcher "github.com/ligne12/nockpool-miner-launcher"
)

// lastCheckKey is the launcher_state key holding the time of the last
// successful release check.
const lastCheckKey = "last_update_check"

// timeFormat is how timestamps are stored; RFC 3339 sorts correctly
// as text, which ListVersions relies on.
const timeFormat = time.RFC3339Nano

// SaveVersion inserts or updates an installed version record.
func (s *store) SaveVersion(ctx context.Context, rec launcher.VersionRecord) error {
	_, err := s.stmtSaveVersion.ExecContext(ctx,
		rec.Version, rec.Digest.String(), rec.Size, rec.InstalledAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("saving version %s: %w", rec.Version, err)
	}
	s.logger.Debug("saved version record", "version", rec.Version)
	return nil
}

// DeleteVersion removes a version record. Deleting an unknown version
// is not an error.
func (s *store) DeleteVersion(ctx context.Context, version string) error {
	if _, err := s.stmtDeleteVersion.ExecContext(ctx, version); err != nil {
		return fmt.Errorf("deleting version %s: %w", version, err)
	}
	return nil
}

// GetVersion retrieves one version record. Returns ErrVersionNotFound
// when the version was never recorded.
func (s *store) GetVersion(ctx context.Context, version string) (launcher.VersionRecord, error) {
	row := s.stmtGetVersion.QueryRowContext(ctx, version)
	rec, err := scanVersion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return launcher.VersionRecord{}, launcher.ErrVersionNotFound{Version: version}
	}
	return rec, err
}

// ListVersions returns all recorded versions, oldest install first.
func (s *store) ListVersions(ctx context.Context) ([]launcher.VersionRecord, error) {
	rows, err := s.stmtListVersions.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var recs []launcher.VersionRecord
	for rows.Next() {
		rec, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// SetLastCheck records when the release API was last queried.
func (s *store) SetLastCheck(ctx context.Context, t time.Time) error {
	_, err := s.stmtSetState.ExecContext(ctx, lastCheckKey, t.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("recording last check: %w", err)
	}
	return nil
}

// LastCheck returns the time of the last release check, or the zero
// time when no check has been recorded.
func (s *store) LastCheck(ctx context.Context) (time.Time, error) {
	var value string
	err := s.stmtGetState.QueryRowContext(ctx, lastCheckKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last check: %w", err)
	}
	t, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last check %q: %w", value, err)
	}
	return t, nil
}

func scanVersion(scan func(...any) error) (launcher.VersionRecord, error) {
	var rec launcher.VersionRecord
	var dgst, installedAt string
	if err := scan(&rec.Version, &dgst, &rec.Size, &installedAt); err != nil {
		return launcher.VersionRecord{}, err
	}

	rec.Digest = digest.Digest(dgst)
	t, err := time.Parse(timeFormat, installedAt)
	if err != nil {
		return launcher.VersionRecord{}, fmt.Errorf("parsing installed_at %q: %w", installedAt, err)
	}
	rec.InstalledAt = t
	return rec, nil
}
