package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sysgen/internal/fetch"
	"sysgen/internal/model"
	"sysgen/internal/source"
)

// Upstream locations, per source.
const (
	kernelBranch = "master"
	tblPath      = "arch/x86/entry/syscalls/syscall_64.tbl"
	syscallsH    = "include/linux/syscalls.h"
	asmGenericH  = "include/asm-generic/syscalls.h"

	manPagesRepo   = "git://git.kernel.org/pub/scm/docs/man-pages/man-pages.git"
	manPagesBranch = "master"
	muslRepo       = "git://git.musl-libc.org/musl"
	muslBranch     = "master"
	glibcRepo      = "https://sourceware.org/git/glibc.git"
	glibcBranch    = "master"
)

// raw is everything the fetch layer hands to the parsers. A nil map or empty
// string means the source is absent for this run.
type raw struct {
	linuxText    string
	manPages     map[string]string
	muslHeaders  map[string]string
	glibcHeaders map[string]string
}

// loadSources fetches and parses the mandatory table plus every enabled
// optional source, and returns all partial records concatenated in source
// processing order. Optional sources that cannot be fetched degrade to
// absent with a warning; the mandatory table failing is fatal.
func loadSources(ctx context.Context, cache *fetch.Cache, enabled []string, opts source.Options, logger *zap.Logger) ([]model.Partial, error) {
	has := func(name string) bool {
		for _, s := range enabled {
			if s == name {
				return true
			}
		}
		return false
	}

	tblText, err := cache.GitHubFile(ctx, fetch.GitHubLinux, kernelBranch, tblPath)
	if err != nil {
		return nil, fmt.Errorf("mandatory source %s: %w", source.Tbl, err)
	}
	tblRes, err := source.NewTblParser(tblText).Parse(opts)
	if err != nil {
		return nil, err
	}
	logDiags(logger, &tblRes.Diags)

	// The libc parsers search only the headers the man pages cite, so the
	// man-pages tree is fetched whenever any of man/musl/glibc is enabled.
	needMan := has(source.Man) || has(source.Musl) || has(source.Glibc)

	var in raw
	g, gctx := errgroup.WithContext(ctx)

	// optional wraps a fetch so that failure downgrades the source to
	// absent instead of failing the run.
	optional := func(name string, f func() error) func() error {
		return func() error {
			err := f()
			if err == nil || errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("source unavailable, continuing without it",
				zap.String("source", name), zap.Error(err))
			return nil
		}
	}

	if has(source.Linux) {
		g.Go(optional(source.Linux, func() error {
			var parts []string
			for _, path := range []string{syscallsH, asmGenericH} {
				text, err := cache.GitHubFile(gctx, fetch.GitHubLinux, kernelBranch, path)
				if err != nil {
					return err
				}
				parts = append(parts, text)
			}
			in.linuxText = strings.Join(parts, "\n")
			return nil
		}))
	}
	if needMan {
		g.Go(optional(source.Man, func() error {
			dir, err := cache.Repo(gctx, manPagesRepo, manPagesBranch)
			if err != nil {
				return err
			}
			pages, err := fetch.ReadTree(dir, func(rel string) bool {
				return strings.HasPrefix(rel, "man2/") && strings.HasSuffix(rel, ".2")
			})
			if err != nil {
				return err
			}
			in.manPages = make(map[string]string, len(pages))
			for rel, content := range pages {
				name := strings.TrimSuffix(strings.TrimPrefix(rel, "man2/"), ".2")
				in.manPages[name] = content
			}
			return nil
		}))
	}
	if has(source.Musl) {
		g.Go(optional(source.Musl, func() error {
			dir, err := cache.Repo(gctx, muslRepo, muslBranch)
			if err != nil {
				return err
			}
			headers, err := fetch.ReadTree(dir+"/include", func(rel string) bool {
				return strings.HasSuffix(rel, ".h")
			})
			if err != nil {
				return err
			}
			in.muslHeaders = headers
			return nil
		}))
	}
	if has(source.Glibc) {
		g.Go(optional(source.Glibc, func() error {
			dir, err := cache.Repo(gctx, glibcRepo, glibcBranch)
			if err != nil {
				return err
			}
			// glibc headers only exist in usable form after a build; the
			// parsers just see the installed text.
			install, err := cache.Materialize(gctx, dir, []string{"--disable-werror"}, "install-headers")
			if err != nil {
				return err
			}
			headers, err := fetch.ReadTree(install+"/include", func(rel string) bool {
				return strings.HasSuffix(rel, ".h")
			})
			if err != nil {
				return err
			}
			in.glibcHeaders = headers
			return nil
		}))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parsers := buildParsers(tblRes.Partials, enabled, &in)

	// Sources parse independently; the merge engine is the barrier.
	results := make([]*source.Result, len(parsers))
	pg := new(errgroup.Group)
	for i, p := range parsers {
		i, p := i, p
		pg.Go(func() error {
			res, err := p.Parse(opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := pg.Wait(); err != nil {
		return nil, err
	}

	partials := append([]model.Partial(nil), tblRes.Partials...)
	for _, res := range results {
		logDiags(logger, &res.Diags)
		partials = append(partials, res.Partials...)
	}
	return partials, nil
}

// buildParsers constructs the enabled optional parsers over the fetched raw
// text, in source processing order.
func buildParsers(tbl []model.Partial, enabled []string, in *raw) []source.Parser {
	man := source.NewManParser(in.manPages)

	// Search each syscall's wrappers only in the headers its man page cites.
	wanted := func() map[string][]string {
		w := make(map[string][]string)
		for _, p := range tbl {
			if !p.Name.Known {
				continue
			}
			if headers := man.Headers(p.Name.Value); len(headers) > 0 {
				w[p.Name.Value] = headers
			}
		}
		return w
	}

	var parsers []source.Parser
	for _, name := range enabled {
		switch name {
		case source.Linux:
			if in.linuxText != "" {
				parsers = append(parsers, source.NewLinuxParser(in.linuxText))
			}
		case source.Man:
			if in.manPages != nil {
				parsers = append(parsers, man)
			}
		case source.Musl:
			if in.muslHeaders != nil {
				parsers = append(parsers, source.NewLibcParser(source.Musl, in.muslHeaders, wanted()))
			}
		case source.Glibc:
			if in.glibcHeaders != nil {
				parsers = append(parsers, source.NewLibcParser(source.Glibc, in.glibcHeaders, wanted()))
			}
		}
	}
	return parsers
}
