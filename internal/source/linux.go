package source

import (
	"regexp"
	"strings"

	"sysgen/internal/ctype"
	"sysgen/internal/model"
)

// Kernel entry-point declarations, possibly spanning several lines:
//
//	asmlinkage long sys_openat(int dfd, const char __user *filename,
//				   int flags, umode_t mode);
var linuxDeclRE = regexp.MustCompile(`(?s)asmlinkage[^;()]*?\bsys_\w+\s*\([^()]*\)\s*;`)

var spaceRunRE = regexp.MustCompile(`\s+`)

// LinuxParser extracts entry-point declarations from the kernel's
// include/linux/syscalls.h (concatenated with include/asm-generic/syscalls.h
// by the caller). Authoritative for parameter lists, keyed by entry symbol;
// it never states numbers.
//
// Kernel entry points uniformly return `asmlinkage long` regardless of what
// the syscall returns to userspace, so the return type is left unknown.
type LinuxParser struct {
	text string
}

func NewLinuxParser(text string) *LinuxParser {
	return &LinuxParser{text: text}
}

func (p *LinuxParser) Name() string { return Linux }

func (p *LinuxParser) Parse(opts Options) (*Result, error) {
	res := &Result{}

	// The headers occasionally declare an entry point twice (e.g. under
	// different #ifdef branches); the last declaration wins.
	index := make(map[string]int)

	for _, loc := range linuxDeclRE.FindAllStringIndex(p.text, -1) {
		raw := spaceRunRE.ReplaceAllString(p.text[loc[0]:loc[1]], " ")
		lineno := 1 + strings.Count(p.text[:loc[0]], "\n")

		decl, err := ctype.ParseFunc(raw)
		if err != nil {
			if opts.Mode == ModeStrict {
				return nil, &ParseError{Source: Linux, Line: lineno, Reason: err.Error()}
			}
			res.Diags.Addf(Linux, lineno, DiagUnparseable, "%v", err)
			continue
		}

		partial := model.NewPartial(Linux)
		partial.Entry = model.String(decl.Name)
		partial.Params = declParams(decl)

		if at, dup := index[decl.Name]; dup {
			res.Diags.Addf(Linux, lineno, DiagDuplicate, "%s declared again, keeping the later declaration", decl.Name)
			res.Partials[at] = partial
			continue
		}
		index[decl.Name] = len(res.Partials)
		res.Partials = append(res.Partials, partial)
	}

	return res, nil
}

// declParams converts parsed parameter declarations to model params. A
// parameter's name is unknown when the declaration states only a type.
func declParams(decl ctype.FuncDecl) []model.Param {
	params := make([]model.Param, 0, len(decl.Params))
	for _, d := range decl.Params {
		p := model.Param{Type: model.String(d.Type.String())}
		if d.Ident != "" {
			p.Name = model.String(d.Ident)
		}
		params = append(params, p)
	}
	return params
}
