package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Repo clones (or refreshes) a git repository shallowly and returns the path
// to its working tree. Refreshing does `reset --hard` first, so the checkout
// must be treated as disposable.
func (c *Cache) Repo(ctx context.Context, url, branch string) (string, error) {
	base := filepath.Base(url)
	base = strings.TrimSuffix(base, ".git")
	dir := filepath.Join(c.Dir, base)

	if _, err := os.Stat(dir); err != nil {
		c.Log.Info("cloning", zap.String("url", url), zap.String("reason", "not in cache"))
		if err := c.mkdir(); err != nil {
			return "", err
		}
		if err := c.git(ctx, c.Dir, "clone", "--branch", branch, "--depth", "1", url); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
		}
		// A pull creates FETCH_HEAD, which carries the freshness timestamp.
		if err := c.git(ctx, dir, "pull", "--depth", "1"); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
		}
		return dir, nil
	}

	isStale, reason := c.stale(filepath.Join(dir, ".git", "FETCH_HEAD"))
	if !isStale {
		c.Log.Debug("using cache", zap.String("repo", base))
		return dir, nil
	}

	c.Log.Info("pulling", zap.String("repo", base), zap.String("reason", reason))
	for _, args := range [][]string{
		{"reset", "--hard"},
		{"switch", "--force", branch},
		{"pull", "--depth", "1"},
	} {
		if err := c.git(ctx, dir, args...); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
		}
	}
	return dir, nil
}

func (c *Cache) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ReadTree reads every file under root matching keep into a map keyed by the
// path relative to root. Parsers consume these maps as plain text; they never
// touch the filesystem themselves.
func ReadTree(root string, keep func(rel string) bool) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !keep(rel) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: read tree %s: %w", root, err)
	}
	return files, nil
}
