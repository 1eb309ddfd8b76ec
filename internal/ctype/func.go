package ctype

import (
	"fmt"
	"regexp"
	"strings"
)

var funcDeclRE = regexp.MustCompile(`(?s)^([^;]+)\(([^)]*)\)\s*;?\s*$`)

// FuncDecl is a parsed C function declaration.
type FuncDecl struct {
	Name   string
	Return Type
	Params []Decl

	// ViaSyscall marks prototypes stylized as syscall(SYS_name, ...), the
	// form man pages use for syscalls without a libc wrapper. Name is the
	// SYS_ constant with its prefix stripped.
	ViaSyscall bool
}

func (f FuncDecl) String() string {
	params := make([]string, 0, len(f.Params)+1)
	if f.ViaSyscall {
		params = append(params, "SYS_"+f.Name)
	}
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	name := f.Name
	if f.ViaSyscall {
		name = "syscall"
	}
	return fmt.Sprintf("%s %s(%s)", f.Return.String(), name, strings.Join(params, ", "))
}

// Variadic reports whether the last parameter is an ellipsis.
func (f FuncDecl) Variadic() bool {
	return len(f.Params) > 0 && f.Params[len(f.Params)-1].Type.IsEllipsis()
}

// ParseFunc parses a C function declaration such as
//
//	asmlinkage long sys_openat(int dfd, const char __user *filename, int flags)
//	pid_t fork(void);
//	long syscall(SYS_gettid);
//
// The grammar is deliberately small: parameters that themselves contain
// parentheses (function pointers) do not parse, and callers are expected to
// skip such declarations.
func ParseFunc(decl string) (FuncDecl, error) {
	m := funcDeclRE.FindStringSubmatch(decl)
	if m == nil {
		return FuncDecl{}, fmt.Errorf("%w: not a C function declaration: %s", ErrBadDecl, decl)
	}

	left, err := ParseDecl(m[1])
	if err != nil {
		return FuncDecl{}, err
	}
	if left.Ident == "" {
		return FuncDecl{}, fmt.Errorf("%w: no function name in: %s", ErrBadDecl, decl)
	}

	var params []Decl
	if strings.TrimSpace(m[2]) != "" {
		for _, raw := range strings.Split(m[2], ",") {
			p, err := ParseDecl(raw)
			if err != nil {
				return FuncDecl{}, err
			}
			params = append(params, p)
		}
	}

	// "(void)" means no parameters.
	if len(params) == 1 && params[0].Ident == "" && params[0].Type.IsVoid() {
		params = nil
	}

	// Only the last parameter may be an ellipsis, and only the first may be
	// a SYS_ constant.
	for _, p := range params[:max(len(params)-1, 0)] {
		if p.Type.IsEllipsis() {
			return FuncDecl{}, fmt.Errorf("%w: ellipsis before last parameter: %s", ErrBadDecl, decl)
		}
	}
	for _, p := range params[min(1, len(params)):] {
		if isSYSConstant(p) {
			return FuncDecl{}, fmt.Errorf("%w: misplaced SYS_ constant: %s", ErrBadDecl, decl)
		}
	}

	f := FuncDecl{Name: left.Ident, Return: left.Type, Params: params}

	isSyscall := f.Name == "syscall"
	hasConstant := len(params) > 0 && isSYSConstant(params[0])
	if isSyscall != hasConstant {
		return FuncDecl{}, fmt.Errorf("%w: malformed syscall(2) form: %s", ErrBadDecl, decl)
	}
	if isSyscall {
		f.Name = strings.TrimPrefix(params[0].Type.Parts[0].Tokens[0], "SYS_")
		f.Params = params[1:]
		f.ViaSyscall = true
	}

	return f, nil
}

func isSYSConstant(d Decl) bool {
	return d.Ident == "" && len(d.Type.Parts) == 1 && d.Type.Parts[0].Kind == SYSConstant
}
