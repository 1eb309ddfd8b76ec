package ctype

import (
	"errors"
	"testing"
)

func TestParseDecl(t *testing.T) {
	tests := []struct {
		in        string
		wantType  string
		wantIdent string
		wantNorm  string
	}{
		{"int fd", "int", "fd", "int"},
		{"const char __user *filename", "const char *", "filename", "char *"},
		{"unsigned long", "unsigned long", "", "unsigned long"},
		{"struct stat *statbuf", "struct stat *", "statbuf", "struct stat *"},
		{"size_t", "size_t", "", "size_t"},
		{"void *", "void *", "", "void *"},
		{"const char * const * argv", "const char * const *", "argv", "char * *"},
		{"asmlinkage long sys_exit", "long", "sys_exit", "long"},
		{"...", "...", "", "..."},
	}
	for _, tt := range tests {
		d, err := ParseDecl(tt.in)
		if err != nil {
			t.Errorf("ParseDecl(%q): %v", tt.in, err)
			continue
		}
		if got := d.Type.String(); got != tt.wantType {
			t.Errorf("ParseDecl(%q).Type = %q, want %q", tt.in, got, tt.wantType)
		}
		if d.Ident != tt.wantIdent {
			t.Errorf("ParseDecl(%q).Ident = %q, want %q", tt.in, d.Ident, tt.wantIdent)
		}
		if got := d.Type.Normalize(); got != tt.wantNorm {
			t.Errorf("ParseDecl(%q).Normalize = %q, want %q", tt.in, got, tt.wantNorm)
		}
	}
}

func TestParseDeclRejects(t *testing.T) {
	for _, in := range []string{"", "fd int", "+", "int ** ="} {
		if _, err := ParseDecl(in); err == nil {
			t.Errorf("ParseDecl(%q) succeeded, want error", in)
		}
	}
}

func TestParseFunc(t *testing.T) {
	f, err := ParseFunc("asmlinkage long sys_openat(int dfd, const char __user *filename, int flags, umode_t mode);")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "sys_openat" {
		t.Errorf("Name = %q", f.Name)
	}
	if got := f.Return.String(); got != "long" {
		t.Errorf("Return = %q", got)
	}
	if len(f.Params) != 4 {
		t.Fatalf("got %d params, want 4", len(f.Params))
	}
	if got := f.Params[1].Type.String(); got != "const char *" {
		t.Errorf("param 1 type = %q", got)
	}
	if f.Params[1].Ident != "filename" {
		t.Errorf("param 1 ident = %q", f.Params[1].Ident)
	}
	if f.Params[3].Type.String() != "umode_t" || f.Params[3].Ident != "mode" {
		t.Errorf("param 3 = %v", f.Params[3])
	}
}

func TestParseFuncVoid(t *testing.T) {
	f, err := ParseFunc("pid_t fork(void);")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "fork" || f.Return.String() != "pid_t" {
		t.Errorf("got %s", f)
	}
	if len(f.Params) != 0 {
		t.Errorf("got %d params, want 0", len(f.Params))
	}
}

func TestParseFuncVariadic(t *testing.T) {
	f, err := ParseFunc("int ioctl(int fd, unsigned long op, ...);")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Variadic() {
		t.Error("Variadic() = false")
	}
	if len(f.Params) != 3 {
		t.Errorf("got %d params, want 3", len(f.Params))
	}
	if _, err := ParseFunc("int bad(..., int fd);"); err == nil {
		t.Error("ellipsis before last parameter accepted")
	}
}

func TestParseFuncSyscallForm(t *testing.T) {
	f, err := ParseFunc("pid_t syscall(SYS_gettid);")
	if err != nil {
		t.Fatal(err)
	}
	if !f.ViaSyscall {
		t.Error("ViaSyscall = false")
	}
	if f.Name != "gettid" {
		t.Errorf("Name = %q, want gettid", f.Name)
	}
	if len(f.Params) != 0 {
		t.Errorf("got %d params, want 0", len(f.Params))
	}

	// syscall() without a SYS_ constant, and a SYS_ constant on another
	// function, are both malformed.
	if _, err := ParseFunc("long syscall(int nr);"); err == nil {
		t.Error("syscall() without SYS_ constant accepted")
	}
	if _, err := ParseFunc("long close(SYS_close);"); err == nil {
		t.Error("SYS_ constant outside syscall() accepted")
	}
}

func TestParseFuncRejectsFunctionPointer(t *testing.T) {
	_, err := ParseFunc("int clone(int (*fn)(void *), void *stack);")
	if err == nil {
		t.Fatal("function pointer parameter accepted")
	}
	if !errors.Is(err, ErrBadDecl) {
		t.Errorf("error = %v, want ErrBadDecl", err)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct{ a, b string }{
		{"const char __user *", "char *"},
		{"unsigned   long", "unsigned long"},
		{"volatile int", "int"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.a); got != NormalizeType(tt.b) {
			t.Errorf("NormalizeType(%q) = %q, want same as %q", tt.a, got, tt.b)
		}
	}
}
