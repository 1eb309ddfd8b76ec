// Package source turns raw upstream text into partial syscall records.
//
// Each upstream source has its own grammar, so each gets its own Parser
// implementation: the syscall table (tbl), the kernel syscall headers
// (linux), the man-pages project (man), and the libc wrapper headers (musl,
// glibc). Parsers are constructed with the raw text the fetch layer supplied
// and know nothing about where it came from.
package source

import (
	"fmt"

	"sysgen/internal/model"
)

// Source identifiers. They key the authority table and appear in record
// provenance.
const (
	Tbl   = "tbl"
	Linux = "linux"
	Man   = "man"
	Musl  = "musl"
	Glibc = "glibc"
)

// Mode controls how a parser reacts to malformed entries.
type Mode int

const (
	// ModeBestEffort skips malformed entries, accumulating diagnostics.
	ModeBestEffort Mode = iota
	// ModeStrict returns a ParseError on the first malformed entry.
	ModeStrict
)

// Options controls parsing behavior across sources.
type Options struct {
	Mode Mode
}

// Result is a parser's output: partial records in the order the source
// declared them, plus diagnostics for anything skipped.
type Result struct {
	Partials []model.Partial
	Diags    Diags
}

// Parser is the per-source parsing contract. One malformed entry must not
// abort parsing of the rest of the input (except under ModeStrict).
type Parser interface {
	Name() string
	Parse(opts Options) (*Result, error)
}

// ParseError reports input that does not match a source's expected grammar.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("source %s: line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
}
