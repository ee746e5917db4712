package launcher

import (
	"context"
	"io"
	"time"
)

// VersionWriter records installed versions in the manifest.
type VersionWriter interface {
	SaveVersion(ctx context.Context, rec VersionRecord) error
	DeleteVersion(ctx context.Context, version string) error
}

// VersionReader reads installed versions from the manifest.
// GetVersion returns ErrVersionNotFound if the version is unknown.
type VersionReader interface {
	GetVersion(ctx context.Context, version string) (VersionRecord, error)
	ListVersions(ctx context.Context) ([]VersionRecord, error)
}

// CheckClock persists the time of the last successful update check so
// restarts do not hammer the release API.
type CheckClock interface {
	SetLastCheck(ctx context.Context, t time.Time) error
	LastCheck(ctx context.Context) (time.Time, error)
}

// Store combines all install manifest operations.
type Store interface {
	io.Closer
	VersionWriter
	VersionReader
	CheckClock
}
