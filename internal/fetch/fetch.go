// Package fetch retrieves upstream source text with a time-to-live disk
// cache. The core never sees this package: it hands raw text to the source
// parsers and treats every call as returning current data.
package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable wraps failures to obtain a source. Callers downgrade it to
// a warning for optional sources; for the mandatory source it is fatal.
var ErrUnavailable = errors.New("fetch: source unavailable")

const (
	rawGitHubURL = "https://raw.githubusercontent.com"

	// GitHubLinux is the kernel project the table and headers come from.
	GitHubLinux = "torvalds/linux"

	// DefaultTTL is how long cached upstream text stays fresh.
	DefaultTTL = 24 * time.Hour

	cacheDirTag = "Signature: 8a477f597d28d172789f06886806bc55"
)

// Cache fetches files and repositories, keeping them under Dir until they
// are older than TTL.
type Cache struct {
	Dir     string
	TTL     time.Duration
	Refresh bool // force re-download regardless of age
	Client  *http.Client
	Log     *zap.Logger
}

// New returns a cache rooted at dir.
func New(dir string, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		Dir:    dir,
		TTL:    ttl,
		Client: http.DefaultClient,
		Log:    log,
	}
}

// mkdir creates the cache directory, tagging it so backup tools skip it.
func (c *Cache) mkdir() error {
	if _, err := os.Stat(c.Dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("fetch: create cache dir: %w", err)
	}
	tag := filepath.Join(c.Dir, "CACHEDIR.TAG")
	if err := os.WriteFile(tag, []byte(cacheDirTag+"\n"), 0o644); err != nil {
		return fmt.Errorf("fetch: write CACHEDIR.TAG: %w", err)
	}
	return nil
}

// stale reports whether the cached path is missing or older than the TTL.
func (c *Cache) stale(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return true, "not in cache"
	}
	if c.Refresh {
		return true, "forced invalidation"
	}
	if time.Since(info.ModTime()) > c.TTL {
		return true, "cache too old"
	}
	return false, ""
}

// File fetches a URL, caching the body under the md5 of the URL.
func (c *Cache) File(ctx context.Context, url string) (string, error) {
	sum := md5.Sum([]byte(url))
	cached := filepath.Join(c.Dir, hex.EncodeToString(sum[:]))

	if isStale, reason := c.stale(cached); !isStale {
		c.Log.Debug("using cache", zap.String("url", url))
		data, err := os.ReadFile(cached)
		if err != nil {
			return "", fmt.Errorf("fetch: read cache for %s: %w", url, err)
		}
		return string(data), nil
	} else {
		c.Log.Info("downloading", zap.String("url", url), zap.String("reason", reason))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: %s", ErrUnavailable, url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}

	if err := c.mkdir(); err != nil {
		return "", err
	}
	if err := os.WriteFile(cached, data, 0o644); err != nil {
		return "", fmt.Errorf("fetch: write cache for %s: %w", url, err)
	}
	return string(data), nil
}

// GitHubFile fetches one file from a GitHub project branch.
func (c *Cache) GitHubFile(ctx context.Context, project, branch, path string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", rawGitHubURL, project, branch, path)
	return c.File(ctx, url)
}
