package source

import (
	"regexp"
	"sort"
	"strings"

	"sysgen/internal/ctype"
	"sysgen/internal/model"
)

var (
	soRE      = regexp.MustCompile(`^\.so (man\w+/\w+\.\d\w*)\n`)
	biRE      = regexp.MustCompile(`(?m)^\.BI?\s`)
	fontRE    = regexp.MustCompile(`\\f.`)
	commentRE = regexp.MustCompile(`/\*.*?\*/`)
	sizeRE    = regexp.MustCompile(`(\w+)\s*\[.*?\]`)
	includeRE = regexp.MustCompile(`#include\s*<([^>]+)>`)
)

// ManParser extracts declared C prototypes from the synopsis blocks of
// man-pages section 2 sources. It enumerates syscalls by name (one page per
// name, following `.so` redirects for syscalls documented on a shared page)
// and is the lowest-authority source: it only fills genuinely unknown fields.
type ManParser struct {
	// pages maps a page name (file name without the .2 suffix) to its troff
	// source.
	pages map[string]string
}

func NewManParser(pages map[string]string) *ManParser {
	return &ManParser{pages: pages}
}

func (p *ManParser) Name() string { return Man }

// page resolves redirects and returns the troff source for a name, or "".
func (p *ManParser) page(name string) string {
	for depth := 0; depth < 5; depth++ {
		content, ok := p.pages[name]
		if !ok {
			return ""
		}
		m := soRE.FindStringSubmatch(content)
		if m == nil {
			return content
		}
		// ".so man2/wait.2" -> "wait". Redirects outside section 2 point at
		// wrappers we do not model.
		target := m[1]
		if !strings.HasPrefix(target, "man2/") || !strings.HasSuffix(target, ".2") {
			return ""
		}
		name = strings.TrimSuffix(strings.TrimPrefix(target, "man2/"), ".2")
	}
	return ""
}

// Headers returns the headers the page's synopsis includes, in order. The
// libc parsers use them to direct their own search.
func (p *ManParser) Headers(name string) []string {
	content := p.page(name)
	if content == "" {
		return nil
	}
	var headers []string
	seen := make(map[string]bool)
	for _, m := range includeRE.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			headers = append(headers, m[1])
		}
	}
	return headers
}

func (p *ManParser) Parse(opts Options) (*Result, error) {
	res := &Result{}

	names := make([]string, 0, len(p.pages))
	for name := range p.pages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := p.page(name)
		if content == "" {
			continue
		}

		raw := findPrototype(content, name)
		if raw == "" {
			// Not every page states a prototype our grammar recognizes.
			continue
		}

		decl, err := ctype.ParseFunc(raw)
		if err != nil {
			if opts.Mode == ModeStrict {
				return nil, &ParseError{Source: Man, Reason: err.Error()}
			}
			res.Diags.Addf(Man, 0, DiagUnparseable, "%s: %v", name, err)
			continue
		}

		partial := model.NewPartial(Man)
		partial.Name = model.String(name)
		partial.Params = declParams(decl)
		partial.Return = model.String(decl.Return.String())
		res.Partials = append(res.Partials, partial)
	}

	return res, nil
}

// findPrototype pulls a declaration for the named syscall out of `.B`/`.BI`
// synopsis lines, preferring the wrapper form over the raw
// syscall(SYS_name, ...) form.
func findPrototype(content, name string) string {
	q := regexp.QuoteMeta(name)
	funcRE := regexp.MustCompile(`\.BI?\s([^;\n]+?` + q + `\s*\((?:[^);]*|[^);]*\([^);]*\)[^);]*)\);)`)
	if m := funcRE.FindStringSubmatch(content); m != nil {
		return cleanTroff(m[1])
	}
	syscallRE := regexp.MustCompile(`\.BI?\s([^;\n]+syscall\s*\(SYS_` + q + `[^);]*\);)`)
	if m := syscallRE.FindStringSubmatch(content); m != nil {
		return cleanTroff(m[1])
	}
	return ""
}

// cleanTroff strips troff markup from a synopsis declaration and rewrites
// array parameters ("buf[size]") to pointers.
func cleanTroff(decl string) string {
	decl = biRE.ReplaceAllString(decl, "")
	decl = strings.ReplaceAll(decl, `"`, "")
	decl = fontRE.ReplaceAllString(decl, "")
	decl = strings.ReplaceAll(decl, "\n", "")
	decl = strings.ReplaceAll(decl, `\`, "")
	decl = commentRE.ReplaceAllString(decl, "")
	decl = sizeRE.ReplaceAllString(decl, "*$1")
	return decl
}
