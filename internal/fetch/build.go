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

// Build directory names inside a materialized checkout.
const (
	buildDir   = "_build"
	installDir = "_install"
)

// Materialize configures and builds a checked-out project so its generated
// form (for glibc, the installed headers) can be parsed as plain text. The
// caller names an install-style make target; the returned path is the
// install prefix. How the text came to exist is invisible to the parsers.
func (c *Cache) Materialize(ctx context.Context, root string, configureArgs []string, target string) (string, error) {
	project := filepath.Base(root)
	build := filepath.Join(root, buildDir)
	install := filepath.Join(root, installDir)

	if isStale, reason := c.stale(install); !isStale {
		c.Log.Debug("using cache", zap.String("build", project))
		return install, nil
	} else {
		c.Log.Info("building", zap.String("project", project), zap.String("reason", reason))
	}

	for _, dir := range []string{build, install} {
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("fetch: clean %s: %w", dir, err)
		}
	}
	if err := os.Mkdir(build, 0o755); err != nil {
		return "", fmt.Errorf("fetch: create build dir: %w", err)
	}

	abs, err := filepath.Abs(install)
	if err != nil {
		return "", fmt.Errorf("fetch: resolve install dir: %w", err)
	}
	configure := append([]string{"--prefix", abs}, configureArgs...)
	if err := c.run(ctx, build, "../configure", configure...); err != nil {
		return "", fmt.Errorf("%w: configure %s: %v", ErrUnavailable, project, err)
	}

	makeArgs := []string{}
	if target != "" {
		makeArgs = append(makeArgs, target)
	}
	if err := c.run(ctx, build, "make", makeArgs...); err != nil {
		return "", fmt.Errorf("%w: make %s: %v", ErrUnavailable, project, err)
	}
	return install, nil
}

func (c *Cache) run(ctx context.Context, dir, name string, args ...string) error {
	c.Log.Info("exec", zap.String("dir", dir), zap.String("cmd", name+" "+strings.Join(args, " ")))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		tail := string(out)
		if len(tail) > 2048 {
			tail = tail[len(tail)-2048:]
		}
		return fmt.Errorf("%s: %v: %s", name, err, strings.TrimSpace(tail))
	}
	return nil
}
