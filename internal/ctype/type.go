package ctype

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadDecl reports text that does not match the declaration grammar.
var ErrBadDecl = errors.New("ctype: invalid declaration")

// PartKind classifies one piece of a type specification.
type PartKind int

const (
	Specifier PartKind = iota // int, unsigned, struct stat, size_t, ...
	Qualifier                 // const, volatile, restrict, _Atomic
	Pointer                   // *
	Ident                     // trailing parameter or function name
	Ellipsis                  // ...
	SYSConstant               // SYS_xxx, first argument of syscall(2)
)

// Part is a run of tokens forming one grammatical piece of a declaration.
type Part struct {
	Kind   PartKind
	Tokens []string
}

func (p Part) String() string { return strings.Join(p.Tokens, " ") }

// Tokens the kernel headers use that carry no type information.
var ignoreTokens = map[string]bool{
	"__user":     true,
	"asmlinkage": true,
}

// C17 §6.7.2 type specifiers, plus kernel/libc typedefs that do not match
// the \w+_t convention.
var typeSpecifiers = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "_Complex": true,
}

var typeSpecifiersExtra = map[string]bool{
	"fd_set": true,
	"u32":    true, "__s32": true,
	"u64": true, "__u32": true,
	"s32": true, "s64": true, "__s64": true, "__u64": true,
	"cap_user_header_t": true, "cap_user_data_t": true,
}

// TypedefRE matches the usual POSIX/kernel typedef convention.
var TypedefRE = regexp.MustCompile(`^\w+_t$`)

// TagSpecifiers are the C17 §6.7.2 tag specifiers; they consume the tag name
// as a second token.
var TagSpecifiers = map[string]bool{
	"struct": true, "union": true, "enum": true,
}

// C17 §6.7.3 type qualifiers.
var typeQualifiers = map[string]bool{
	"const": true, "restrict": true, "volatile": true, "_Atomic": true,
}

var identifierRE = regexp.MustCompile(`^[A-Z_a-z]\w*$`)
var sysConstantRE = regexp.MustCompile(`^SYS_\w+$`)

// match reports how many leading tokens form a part of the given kind,
// 0 meaning no match.
func match(kind PartKind, tokens []string) int {
	switch kind {
	case Specifier:
		if typeSpecifiers[tokens[0]] || typeSpecifiersExtra[tokens[0]] ||
			TypedefRE.MatchString(tokens[0]) {
			return 1
		}
		if TagSpecifiers[tokens[0]] && len(tokens) >= 2 {
			return 2
		}
	case Qualifier:
		if typeQualifiers[tokens[0]] {
			return 1
		}
	case Pointer:
		if tokens[0] == "*" {
			return 1
		}
	case Ident:
		if identifierRE.MatchString(tokens[0]) {
			return 1
		}
	case Ellipsis:
		if tokens[0] == "..." {
			return 1
		}
	case SYSConstant:
		if sysConstantRE.MatchString(tokens[0]) {
			return 1
		}
	}
	return 0
}

// allowAfter returns which part kinds may follow the given one.
func allowAfter(kind PartKind) []PartKind {
	switch kind {
	case Specifier, Qualifier:
		return []PartKind{Specifier, Qualifier, Pointer, Ident}
	case Pointer:
		return []PartKind{Qualifier, Pointer, Ident}
	}
	return nil
}

// parseParts parses tokens into grammatical parts, enforcing ordering
// (specifiers and qualifiers, then pointers, then at most one identifier).
func parseParts(tokens []string) ([]Part, error) {
	next := []PartKind{Ellipsis, SYSConstant, Specifier, Qualifier}
	var parts []Part

	for len(tokens) > 0 {
		if ignoreTokens[tokens[0]] {
			tokens = tokens[1:]
			continue
		}
		matched := false
		for _, kind := range next {
			if n := match(kind, tokens); n > 0 {
				parts = append(parts, Part{Kind: kind, Tokens: tokens[:n]})
				tokens = tokens[n:]
				next = allowAfter(kind)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: cannot match tokens at: %s",
				ErrBadDecl, strings.Join(tokens, " "))
		}
	}
	return parts, nil
}

// Type is a parsed C type specification (no identifier).
type Type struct {
	Parts []Part
}

func (t Type) String() string {
	ss := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		ss[i] = p.String()
	}
	return strings.Join(ss, " ")
}

// IsVoid reports whether the type is exactly "void" with no pointers.
func (t Type) IsVoid() bool {
	return len(t.Parts) == 1 && t.Parts[0].Kind == Specifier &&
		len(t.Parts[0].Tokens) == 1 && t.Parts[0].Tokens[0] == "void"
}

// IsEllipsis reports whether the type is a lone "...".
func (t Type) IsEllipsis() bool {
	return len(t.Parts) == 1 && t.Parts[0].Kind == Ellipsis
}

// Normalize returns a canonical rendering for value comparison between
// sources: qualifiers dropped, single spacing, pointers as trailing "*"s.
// "const char __user *" and "const char *" normalize identically.
func (t Type) Normalize() string {
	var ss []string
	for _, p := range t.Parts {
		switch p.Kind {
		case Specifier, Pointer, Ellipsis, SYSConstant:
			ss = append(ss, p.String())
		}
	}
	return strings.Join(ss, " ")
}

// KnownTypedef reports whether tok is a typedef-style specifier: the \w+_t
// convention or one of the known kernel/libc typedefs.
func KnownTypedef(tok string) bool {
	return typeSpecifiersExtra[tok] || TypedefRE.MatchString(tok)
}

// Decl is a type specification with an optional trailing identifier, as in a
// function parameter "const char *pathname".
type Decl struct {
	Type  Type
	Ident string
}

func (d Decl) String() string {
	if d.Ident == "" {
		return d.Type.String()
	}
	return d.Type.String() + " " + d.Ident
}

// ParseDecl parses a C declaration or type specification.
func ParseDecl(s string) (Decl, error) {
	parts, err := parseParts(lex(s))
	if err != nil {
		return Decl{}, fmt.Errorf("%w: not a valid C type specification: %s", ErrBadDecl, s)
	}
	if len(parts) == 0 {
		return Decl{}, fmt.Errorf("%w: empty type specification: %q", ErrBadDecl, s)
	}
	d := Decl{Type: Type{Parts: parts}}
	if last := parts[len(parts)-1]; last.Kind == Ident {
		d.Type.Parts = parts[:len(parts)-1]
		d.Ident = last.Tokens[0]
	}
	return d, nil
}

// NormalizeType is a convenience for comparing raw type strings from
// different sources. Unparseable input falls back to whitespace collapsing.
func NormalizeType(s string) string {
	d, err := ParseDecl(s)
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return d.Type.Normalize()
}
