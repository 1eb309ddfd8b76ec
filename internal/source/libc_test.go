package source

import (
	"testing"

	"sysgen/internal/model"
)

const unistdSample = `#ifndef _UNISTD_H
#define _UNISTD_H

#define _POSIX_VERSION 200809L \
	/* continued */

int pipe(int [2]);
int pipe2(int [2], int);
pid_t getpid(void);
ssize_t read(int, void *, size_t);
ssize_t read(int, void *, size_t);
int execve(const char *, char *const [], char *const []);

#endif
`

func TestLibcParse(t *testing.T) {
	headers := map[string]string{"unistd.h": unistdSample}
	wanted := map[string][]string{
		"pipe2":  {"unistd.h"},
		"read":   {"unistd.h"},
		"execve": {"unistd.h"},
		"nosuch": {"missing.h"},
	}

	res, err := NewLibcParser(Musl, headers, wanted).Parse(Options{})
	if err != nil {
		t.Fatal(err)
	}

	byName := make(map[string]model.Partial)
	for _, p := range res.Partials {
		if p.Source != Musl {
			t.Errorf("partial source = %q", p.Source)
		}
		byName[p.Name.Or("?")] = p
	}
	// getpid is in the header but not wanted; nosuch has no header at all.
	// The repeated read declaration collapses to one partial.
	if len(res.Partials) != 3 {
		t.Fatalf("got %d partials, want 3: %v", len(res.Partials), byName)
	}

	// Unnamed array parameters become pointers.
	pipe2 := byName["pipe2"]
	if len(pipe2.Params) != 2 || pipe2.Params[0].Type.Or("?") != "int *" {
		t.Errorf("pipe2 params = %+v", pipe2.Params)
	}
	if pipe2.Params[0].Name.Known {
		t.Errorf("libc headers do not name parameters: %+v", pipe2.Params)
	}

	read := byName["read"]
	if read.Return.Or("?") != "ssize_t" || len(read.Params) != 3 {
		t.Errorf("read = %+v", read)
	}
	if got := read.Params[1].Type.Or("?"); got != "void *" {
		t.Errorf("read param 1 type = %q", got)
	}

	execve := byName["execve"]
	if len(execve.Params) != 3 {
		t.Fatalf("execve params = %+v", execve.Params)
	}
	if got := execve.Params[1].Type.Or("?"); got != "char * const *" {
		t.Errorf("execve param 1 type = %q", got)
	}

	if res.Diags.Len() != 0 {
		t.Errorf("diags = %v", res.Diags.Items())
	}
}

func TestLibcParseUnparseable(t *testing.T) {
	headers := map[string]string{
		"sched.h": "int clone(int (*fn)(void *), void *stack, int flags);\n",
	}
	wanted := map[string][]string{"clone": {"sched.h"}}

	res, err := NewLibcParser(Glibc, headers, wanted).Parse(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Partials) != 0 {
		t.Errorf("got %d partials, want 0: %+v", len(res.Partials), res.Partials)
	}
	if res.Diags.Len() != 1 || res.Diags.Items()[0].Kind != DiagUnparseable {
		t.Errorf("diags = %v", res.Diags.Items())
	}
}
