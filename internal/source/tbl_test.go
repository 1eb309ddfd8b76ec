package source

import (
	"errors"
	"testing"
)

const tblSample = `# 64-bit system call numbers and entry vectors
0	common	read	sys_read
1	common	write	sys_write
13	64	rt_sigaction	sys_rt_sigaction
134	64	uselib
512	x32	rt_sigaction	compat_sys_rt_sigaction
bogus	common	junk	sys_junk
`

func TestTblParse(t *testing.T) {
	res, err := NewTblParser(tblSample).Parse(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Partials) != 4 {
		t.Fatalf("got %d partials, want 4", len(res.Partials))
	}

	read := res.Partials[0]
	if read.Source != Tbl || read.Number != 0 || read.ABI != "common" {
		t.Errorf("read = %+v", read)
	}
	if read.Name.Or("?") != "read" || read.Entry.Or("?") != "sys_read" {
		t.Errorf("read = %+v", read)
	}
	if read.Params != nil || read.Return.Known {
		t.Errorf("tbl must not state params or return: %+v", read)
	}

	// The entry point column is optional.
	uselib := res.Partials[3]
	if uselib.Number != 134 || uselib.Name.Or("?") != "uselib" {
		t.Errorf("uselib = %+v", uselib)
	}
	if uselib.Entry.Known {
		t.Errorf("uselib has no entry point, got %q", uselib.Entry.Value)
	}

	for _, p := range res.Partials {
		if p.ABI != "common" && p.ABI != "64" {
			t.Errorf("x32 entry leaked through: %+v", p)
		}
	}

	if res.Diags.Len() != 1 {
		t.Fatalf("got %d diags, want 1: %v", res.Diags.Len(), res.Diags.Items())
	}
	d := res.Diags.Items()[0]
	if d.Kind != DiagMalformed || d.Line != 7 {
		t.Errorf("diag = %+v", d)
	}
}

func TestTblParseStrict(t *testing.T) {
	_, err := NewTblParser(tblSample).Parse(Options{Mode: ModeStrict})
	if err == nil {
		t.Fatal("strict mode accepted a malformed line")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %T, want *ParseError", err)
	}
	if perr.Source != Tbl || perr.Line != 7 {
		t.Errorf("ParseError = %+v", perr)
	}
}

func TestTblParseTooFewFields(t *testing.T) {
	res, err := NewTblParser("42\tcommon\n").Parse(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Partials) != 0 {
		t.Errorf("got %d partials, want 0", len(res.Partials))
	}
	if res.Diags.Len() != 1 || res.Diags.Items()[0].Kind != DiagMalformed {
		t.Errorf("diags = %v", res.Diags.Items())
	}
}
