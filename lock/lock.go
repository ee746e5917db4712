// Package lock provides a per-install single-instance guard using
// flock(2). Two launchers sharing an install directory would race on
// the current symlink and the version store, so the run and update
// commands take the lock for their whole lifetime.
package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Guard holds an exclusive flock on the launcher lock file. The lock
// is released when the process exits or Release is called.
type Guard struct {
	f *os.File
}

// ErrHeld is returned by Acquire when another launcher already holds
// the lock.
type ErrHeld struct {
	Path string
}

func (e *ErrHeld) Error() string {
	return fmt.Sprintf("another launcher is already running (lock %s held)", e.Path)
}

// Acquire takes the exclusive lock at path without blocking.
func Acquire(path string) (*Guard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, &ErrHeld{Path: path}
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &Guard{f: f}, nil
}

// Release drops the lock. Safe to call on a nil Guard.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	f := g.f
	g.f = nil
	return f.Close()
}
