package launcher

import "fmt"

// ErrNoAsset is returned when a release has no package matching the
// host platform.
type ErrNoAsset struct {
	Package string
	Tag     string
}

func (e ErrNoAsset) Error() string {
	return fmt.Sprintf("release %s has no asset %q for this platform", e.Tag, e.Package)
}

// ErrNotInstalled is returned when an operation requires an installed
// miner but the current symlink does not exist.
type ErrNotInstalled struct {
	Path string
}

func (e ErrNotInstalled) Error() string {
	return fmt.Sprintf("no miner version installed at %s", e.Path)
}

// ErrVersionNotFound is returned when a version is missing from the
// install manifest.
type ErrVersionNotFound struct {
	Version string
}

func (e ErrVersionNotFound) Error() string {
	return fmt.Sprintf("version %q not found in install manifest", e.Version)
}
