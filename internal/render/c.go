package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sysgen/internal/ctype"
	"sysgen/internal/model"
)

func init() { Register(&cRenderer{}) }

// cRenderer emits syscalls.h and syscalls.c: an enum of simplified parameter
// types and an array with one entry per syscall, terminated by a -1 sentinel.
type cRenderer struct{}

func (r *cRenderer) Name() string    { return "c" }
func (r *cRenderer) Files() []string { return []string{"syscalls.h", "syscalls.c"} }

// Enum constants every build starts with; simplify may extend the list.
var seedTypes = []string{
	"NONE",
	"UNKNOWN",
	"VOID",
	"CHAR", "UCHAR",
	"SHORT", "USHORT",
	"INT", "UINT",
	"LONG", "ULONG",
	"INT8", "INT16", "INT32", "INT64",
	"UINT8", "UINT16", "UINT32", "UINT64",
	"SIZE_T",
}

// Integer typedefs with their own enum constants.
var specialInts = func() map[string]string {
	m := map[string]string{
		"size_t":  "SIZE_T",
		"ssize_t": "SSIZE_T",
	}
	for _, size := range []string{"8", "16", "32", "64"} {
		m["int"+size+"_t"] = "INT" + size
		m["s"+size] = "INT" + size
		m["__s"+size] = "INT" + size
		m["uint"+size+"_t"] = "UINT" + size
		m["u"+size] = "UINT" + size
		m["__u"+size] = "UINT" + size
	}
	return m
}()

// Pointer parameters that get a dedicated constant when type and name match.
var specialNames = map[string][2]string{
	"argv": {"CHAR_PP", "ARGV"},
	"envp": {"CHAR_PP", "ENVP"},
}

func (r *cRenderer) Render(dir string, t *model.Table) error {
	types := append([]string(nil), seedTypes...)
	addType := func(s string) string {
		for _, have := range types {
			if have == s {
				return s
			}
		}
		types = append(types, s)
		return s
	}

	var body strings.Builder
	fmt.Fprintf(&body, "#include \"syscalls.h\"\n\n#include <stddef.h>\n\n")
	fmt.Fprintf(&body, "struct syscall_entry syscalls[%d] =\n{\n", len(t.Records)+1)

	for i := range t.Records {
		rec := &t.Records[i]
		fmt.Fprintf(&body, "  // %s;\n", rec.Prototype())

		argc := -1 // arity unknown
		if rec.Params != nil {
			argc = len(rec.Params)
		}
		retval := addType(simplifyField(rec.Return, model.Str{}))

		args := make([]string, 6)
		for j := range args {
			switch {
			case rec.Params == nil:
				args[j] = "UNKNOWN"
			case j < len(rec.Params):
				args[j] = addType(simplifyField(rec.Params[j].Type, rec.Params[j].Name))
			default:
				args[j] = "NONE"
			}
		}

		fmt.Fprintf(&body, "  {%d, %q, %d, %s, {%s}},\n",
			rec.Number, rec.Name.Or(""), argc, retval, strings.Join(args, ", "))
	}
	body.WriteString("  {-1, NULL, 6, UNKNOWN, {UNKNOWN, UNKNOWN, UNKNOWN, UNKNOWN, UNKNOWN, UNKNOWN}}\n};\n")

	header := fmt.Sprintf(`#pragma once

// Generated by sysgen. argc is -1 when no source declared a parameter list.

enum TYPE
{
  %s
};

struct syscall_entry
{
  int nr;
  const char *name;
  int argc;
  enum TYPE retval;
  enum TYPE args[6];
};

extern struct syscall_entry syscalls[%d];
`, strings.Join(types, ",\n  "), len(t.Records)+1)

	if err := os.WriteFile(filepath.Join(dir, "syscalls.c"), []byte(body.String()), 0644); err != nil {
		return fmt.Errorf("render: write syscalls.c: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "syscalls.h"), []byte(header), 0644); err != nil {
		return fmt.Errorf("render: write syscalls.h: %w", err)
	}
	return nil
}

// simplifyField maps a merged type string (plus parameter name, when known)
// to an enum constant.
func simplifyField(typ, name model.Str) string {
	if !typ.Known {
		return "UNKNOWN"
	}
	d, err := ctype.ParseDecl(typ.Value)
	if err != nil {
		return "UNKNOWN"
	}
	if name.Known {
		d.Ident = name.Value
	}
	return simplify(d)
}

// simplify turns a type specification into its simplified enum constant, for
// example "const char * const *" becomes CHAR_PP, and with a matching
// identifier, a more specific one: "const char * const * argv" becomes ARGV.
func simplify(d ctype.Decl) string {
	// Keep specifiers and pointers; qualifiers do not matter here.
	var clean []ctype.Part
	for _, p := range d.Type.Parts {
		if p.Kind == ctype.Specifier || p.Kind == ctype.Pointer {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return "UNKNOWN" // "..." or qualifiers only
	}

	pointers := 0
	for pointers < len(clean) && clean[len(clean)-1-pointers].Kind == ctype.Pointer {
		pointers++
	}
	spec := clean[:len(clean)-pointers]
	if len(spec) == 0 {
		return "UNKNOWN"
	}

	first := spec[0].Tokens[0]
	var simplified string
	switch {
	case ctype.TagSpecifiers[first]:
		simplified = "UNKNOWN" // struct/union/enum not supported
	case specialInts[first] != "":
		simplified = specialInts[first]
	case ctype.KnownTypedef(first):
		simplified = "UNKNOWN" // opaque typedef
	case first == "void":
		simplified = "VOID"
	default:
		simplified = simplifyIntegral(spec)
	}

	if pointers > 0 {
		if simplified == "UNKNOWN" {
			// The amount of indirection does not matter.
			simplified += "_P"
		} else {
			simplified += "_" + strings.Repeat("P", pointers)
		}
	}

	if d.Ident != "" {
		if special, ok := specialNames[d.Ident]; ok && simplified == special[0] {
			simplified = special[1]
		}
	}
	return simplified
}

// simplifyIntegral folds char/int/signed/unsigned/short/long specifier runs
// into constants like UINT, SLONG, or LONGLONG. Specifier combinations C does
// not allow come out as UNKNOWN.
func simplifyIntegral(spec []ctype.Part) string {
	var base, signedness, size string
	for _, part := range spec {
		for _, token := range part.Tokens {
			switch token {
			case "char", "int":
				if base != "" {
					return "UNKNOWN"
				}
				base = token
			case "signed", "unsigned":
				if signedness != "" {
					return "UNKNOWN"
				}
				signedness = token
			case "short":
				if size != "" || base != "" {
					return "UNKNOWN"
				}
				size = "short"
			case "long":
				if base != "" {
					return "UNKNOWN"
				}
				switch size {
				case "":
					size = "long"
				case "long":
					size = "longlong"
				default:
					return "UNKNOWN"
				}
			default:
				return "UNKNOWN"
			}
		}
	}

	sign := ""
	switch signedness {
	case "unsigned":
		sign = "U"
	case "signed":
		sign = "S"
	}
	if base == "" {
		base = "int"
	}

	if base == "char" {
		if size != "" {
			return "UNKNOWN"
		}
		return sign + "CHAR"
	}
	if size == "" {
		return sign + "INT"
	}
	return sign + strings.ToUpper(size)
}
