// Package launcher holds the domain types shared by the nockpool
// miner launcher: release metadata, platform package naming, and the
// install manifest store interface.
package launcher

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

// BinaryName is the name of the miner executable inside a version
// directory.
const BinaryName = "nockpool-miner"

// Release describes a published miner release as reported by the
// release API.
type Release struct {
	Tag    string  `json:"tag_name"`
	Assets []Asset `json:"assets"`
}

// Asset is a single downloadable artifact attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Version returns the release version with any leading "v" stripped,
// matching the naming of installed version directories.
func (r Release) Version() string {
	return strings.TrimPrefix(r.Tag, "v")
}

// AssetNamed returns the asset with the given name.
func (r Release) AssetNamed(name string) (Asset, error) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, ErrNoAsset{Package: name, Tag: r.Tag}
}

// Platform identifies the OS/architecture pair a miner package is
// built for, using the release asset naming scheme rather than Go's.
type Platform struct {
	OS   string // "linux" or "macos"
	Arch string // "x86_64" or "aarch64"
}

// HostPlatform returns the Platform for the running process.
func HostPlatform() Platform {
	p := Platform{OS: "linux", Arch: "x86_64"}
	if runtime.GOOS == "darwin" {
		p.OS = "macos"
	}
	if runtime.GOARCH == "arm64" {
		p.Arch = "aarch64"
	}
	return p
}

// PackageName returns the release asset name for this platform.
// macOS packages are zip archives; linux packages are bare binaries.
func (p Platform) PackageName() string {
	name := fmt.Sprintf("%s-%s-%s", BinaryName, p.OS, p.Arch)
	if p.OS == "macos" {
		name += ".zip"
	}
	return name
}

// Zipped reports whether this platform's package needs extraction.
func (p Platform) Zipped() bool {
	return p.OS == "macos"
}

// VersionRecord is one row of the install manifest: a miner version
// that was downloaded and installed by this launcher.
type VersionRecord struct {
	Version     string
	Digest      digest.Digest
	Size        int64
	InstalledAt time.Time
}
