// Package release talks to the GitHub releases API: discovering the
// latest published miner release and downloading its platform asset.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opencontainers/go-digest"

	launcher "github.com/ligne12/nockpool-miner-launcher"
)

// DefaultBaseURL is the GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// userAgent identifies the launcher to the release API. GitHub rejects
// requests without one.
const userAgent = "miner-launcher"

// Client queries release metadata and downloads assets.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "release") }
}

// NewClient returns a release client with a 30 second request timeout
// unless a custom HTTP client is supplied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the newest published release of owner/repo.
func (c *Client) Latest(ctx context.Context, owner, repo string) (launcher.Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return launcher.Release{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return launcher.Release{}, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return launcher.Release{}, fmt.Errorf("fetching latest release: unexpected status %s", resp.Status)
	}

	var rel launcher.Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return launcher.Release{}, fmt.Errorf("decoding release metadata: %w", err)
	}
	if rel.Tag == "" {
		return launcher.Release{}, fmt.Errorf("release metadata has no tag")
	}

	c.logger.Debug("fetched latest release", "tag", rel.Tag, "assets", len(rel.Assets))
	return rel, nil
}

// Download streams the asset into w, returning the sha256 digest and
// byte count of what was written. The digest is computed while
// streaming so large packages are never buffered in memory.
func (c *Client) Download(ctx context.Context, asset launcher.Asset, w io.Writer) (digest.Digest, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("downloading %s: unexpected status %s", asset.Name, resp.Status)
	}

	digester := digest.Canonical.Digester()
	n, err := io.Copy(io.MultiWriter(w, digester.Hash()), resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}

	dgst := digester.Digest()
	c.logger.Debug("downloaded asset", "name", asset.Name, "bytes", n, "digest", dgst)
	return dgst, n, nil
}
