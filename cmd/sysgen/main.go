// Command sysgen builds a canonical description of every Linux x86_64
// syscall by reconciling several upstream sources, then renders it as C
// and/or HTML artifacts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sysgen/internal/fetch"
	"sysgen/internal/merge"
	"sysgen/internal/model"
	"sysgen/internal/render"
	"sysgen/internal/source"
)

var (
	sourcesFlag   string
	formatsFlag   string
	outDir        string
	cacheDir      string
	ttl           time.Duration
	refresh       bool
	strict        bool
	authorityPath string
	verbose       bool
)

func init() {
	defaultCache := ".cache"
	if home, err := os.UserHomeDir(); err == nil {
		defaultCache = filepath.Join(home, ".sysgen", "cache")
	}

	pflag.StringVarP(&sourcesFlag, "sources", "s", "linux,man,musl,glibc", "optional sources to reconcile, comma separated")
	pflag.StringVarP(&formatsFlag, "formats", "f", "c,html", "output formats, comma separated")
	pflag.StringVarP(&outDir, "out", "o", ".", "output directory")
	pflag.StringVar(&cacheDir, "cache-dir", defaultCache, "cache directory for upstream text")
	pflag.DurationVar(&ttl, "ttl", fetch.DefaultTTL, "how long cached upstream text stays fresh")
	pflag.BoolVar(&refresh, "refresh", false, "re-fetch all sources regardless of cache age")
	pflag.BoolVar(&strict, "strict", false, "fail on the first malformed source entry")
	pflag.StringVar(&authorityPath, "authority", "", "YAML file overriding the built-in authority ranks")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sysgen [options...]

Reconcile the Linux x86_64 syscall table from several upstream sources into
one canonical model, and render it.

The syscall table (syscall_64.tbl) is always used and is authoritative for
numbering; its absence is fatal. Optional sources:

  linux: Linux's syscalls.h headers. Kernel-side entry-point declarations.
         Good quality: exhaustive, lacks return values.
  man:   The man-pages project. Prototypes as userspace sees them via libc.
         High quality, though some pages are too detailed for our parser.
  musl:  musl libc headers. Wrapper declarations.
         Low quality: minimal, lacks parameter names.
  glibc: GNU libc headers (built via configure && make install-headers).
         Low quality: bad coverage, often too complex for our parser.

Sources disagree; every disagreement is kept as a recorded conflict and the
highest-authority value wins.

Formats:
  c:     syscalls.h and syscalls.c, a C array describing every syscall.
  html:  syscalls.html, one table row per syscall with provenance.

Options:
`)
		pflag.PrintDefaults()
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	pflag.Parse()

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	auth := source.DefaultAuthority()
	if authorityPath != "" {
		if auth, err = source.LoadAuthority(authorityPath); err != nil {
			return err
		}
	}

	enabled, err := splitList(sourcesFlag, func(s string) bool {
		switch s {
		case source.Linux, source.Man, source.Musl, source.Glibc:
			return true
		}
		return false
	})
	if err != nil {
		return fmt.Errorf("unknown source: %w", err)
	}
	// Processing order is fixed by the authority table, not by flag order,
	// so rank tie-breaks stay deterministic.
	sort.SliceStable(enabled, func(i, j int) bool {
		return auth.OrderIndex(enabled[i]) < auth.OrderIndex(enabled[j])
	})

	formats, err := splitList(formatsFlag, func(f string) bool {
		_, err := render.Lookup(f)
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("unknown format: %w (have %s)", err, strings.Join(render.Names(), ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := fetch.New(cacheDir, ttl, logger)
	cache.Refresh = refresh

	opts := source.Options{Mode: source.ModeBestEffort}
	if strict {
		opts.Mode = source.ModeStrict
	}

	partials, err := loadSources(ctx, cache, enabled, opts, logger)
	if err != nil {
		return err
	}

	var diags source.Diags
	table, err := merge.New(auth).Merge(partials, &diags)
	if err != nil {
		return err
	}
	logDiags(logger, &diags)

	if err := model.Validate(table); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	var files []string
	for _, format := range formats {
		r, err := render.Lookup(format)
		if err != nil {
			return err
		}
		if err := r.Render(outDir, table); err != nil {
			return err
		}
		files = append(files, r.Files()...)
	}

	printSummary(table, enabled, files)
	return nil
}

func buildLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger, nil
}

func splitList(list string, valid func(string) bool) ([]string, error) {
	var out []string
	for _, item := range strings.Split(list, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if !valid(item) {
			return nil, fmt.Errorf("%q", item)
		}
		out = append(out, item)
	}
	return out, nil
}

func logDiags(logger *zap.Logger, diags *source.Diags) {
	for _, d := range diags.Items() {
		entry := logger.Warn
		if d.Kind == source.DiagUnresolved || d.Kind == source.DiagDuplicate {
			// Expected in bulk: man pages and libc headers describe plenty
			// of functions the syscall table does not know about.
			entry = logger.Debug
		}
		entry(d.Msg,
			zap.String("source", d.Source),
			zap.String("kind", string(d.Kind)),
			zap.Int("line", d.Line))
	}
}

// printSummary reports per-source coverage, mirroring what the table shows.
func printSummary(table *model.Table, enabled []string, files []string) {
	counts := make(map[string]int)
	bare := 0
	for i := range table.Records {
		rec := &table.Records[i]
		for _, s := range rec.Sources {
			counts[s]++
		}
		if len(rec.Sources) == 1 && rec.Sources[0] == source.Tbl {
			bare++
		}
	}

	fmt.Printf("%d x86_64 syscalls listed in syscall_64.tbl:\n", len(table.Records))
	for _, s := range enabled {
		fmt.Printf("  - %d described by %s,\n", counts[s], s)
	}
	fmt.Printf("  - %d not described anywhere.\n", bare)
	if len(files) > 0 {
		fmt.Printf("%d records dumped in:\n", len(table.Records))
		for _, f := range files {
			fmt.Printf("  - %s\n", filepath.Join(outDir, f))
		}
	}
}
