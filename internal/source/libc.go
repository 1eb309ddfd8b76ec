package source

import (
	"regexp"
	"sort"
	"strings"

	"sysgen/internal/ctype"
	"sysgen/internal/model"
)

var (
	contRE    = regexp.MustCompile(`\\\n`)
	preprocRE = regexp.MustCompile(`(?m)^\s*#.*$`)
)

// LibcParser extracts syscall wrapper declarations from a libc's header
// tree. The same terse grammar serves both musl (raw include/ tree) and
// glibc (headers materialized by a configure+make step the fetch layer
// performs; this parser only ever sees text).
//
// It searches each wrapper name only in the headers the man-pages synopsis
// cites for it, which keeps it from emitting records for the thousands of
// libc functions that are not syscalls.
type LibcParser struct {
	source  string
	headers map[string]string   // header path (e.g. "sys/stat.h") -> content
	wanted  map[string][]string // wrapper name -> headers to search
	prepped map[string]string
}

// NewLibcParser builds a libc parser for the given source identifier
// (Musl or Glibc).
func NewLibcParser(src string, headers map[string]string, wanted map[string][]string) *LibcParser {
	return &LibcParser{
		source:  src,
		headers: headers,
		wanted:  wanted,
		prepped: make(map[string]string),
	}
}

func (p *LibcParser) Name() string { return p.source }

// header returns the named header with line continuations joined and
// preprocessor lines stripped, or "" when the libc does not ship it.
func (p *LibcParser) header(path string) string {
	if prepped, ok := p.prepped[path]; ok {
		return prepped
	}
	content, ok := p.headers[path]
	if ok {
		content = contRE.ReplaceAllString(content, "")
		content = preprocRE.ReplaceAllString(content, "")
	}
	p.prepped[path] = content
	return content
}

func (p *LibcParser) Parse(opts Options) (*Result, error) {
	res := &Result{}

	names := make([]string, 0, len(p.wanted))
	for name := range p.wanted {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		seen := make(map[string]bool)
		for _, header := range p.wanted[name] {
			content := p.header(header)
			if content == "" {
				continue
			}
			q := regexp.QuoteMeta(name)
			declRE := regexp.MustCompile(`[^;{]+(?:\s|\*)` + q + `\s*\(.*?\)\s*;`)
			for _, raw := range declRE.FindAllString(content, -1) {
				// Unnamed array parameters like "int [2]" become "int*".
				raw = strings.TrimSpace(sizeRE.ReplaceAllString(raw, "$1*"))
				if seen[raw] {
					continue
				}
				seen[raw] = true

				decl, err := ctype.ParseFunc(raw)
				if err != nil {
					// Some wrappers (clone(2), function-pointer parameters)
					// are beyond this grammar.
					res.Diags.Addf(p.source, 0, DiagUnparseable, "%s in %s: %v", name, header, err)
					continue
				}
				if decl.Name != name {
					continue
				}

				partial := model.NewPartial(p.source)
				partial.Name = model.String(name)
				partial.Params = declParams(decl)
				partial.Return = model.String(decl.Return.String())
				res.Partials = append(res.Partials, partial)
			}
		}
	}

	return res, nil
}
