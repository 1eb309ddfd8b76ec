package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"sysgen/internal/model"
)

func TestDefaultAuthority(t *testing.T) {
	a := DefaultAuthority()

	want := []string{Tbl, Linux, Man, Musl, Glibc}
	if !reflect.DeepEqual(a.Order, want) {
		t.Errorf("Order = %v, want %v", a.Order, want)
	}
	if got := a.Mandatory(); got != Tbl {
		t.Errorf("Mandatory() = %q, want %q", got, Tbl)
	}

	if rank, ok := a.Rank(Tbl, model.CatNumber); !ok || rank != 100 {
		t.Errorf("Rank(tbl, number) = %d, %v", rank, ok)
	}
	// The kernel headers say nothing about return types.
	if _, ok := a.Rank(Linux, model.CatReturn); ok {
		t.Error("Rank(linux, return) = ok, want not ranked")
	}
	if _, ok := a.Rank("hurd", model.CatName); ok {
		t.Error("Rank(hurd, name) = ok, want not ranked")
	}

	// musl outranks man for return types, and both are outranked by nothing
	// ranked higher.
	musl, _ := a.Rank(Musl, model.CatReturn)
	man, _ := a.Rank(Man, model.CatReturn)
	if musl <= man {
		t.Errorf("musl return rank %d not above man %d", musl, man)
	}

	if got := a.OrderIndex(Man); got != 2 {
		t.Errorf("OrderIndex(man) = %d", got)
	}
	if got := a.OrderIndex("hurd"); got != len(a.Order) {
		t.Errorf("OrderIndex(hurd) = %d, want %d", got, len(a.Order))
	}
}

func TestParseAuthorityRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty order", "order: []\n"},
		{"duplicate in order", "order: [tbl, tbl]\n"},
		{"ranks without order", "order: [tbl]\nsources:\n  man:\n    name: 1\n"},
		{"not yaml", ":"},
	}
	for _, tt := range tests {
		if _, err := ParseAuthority([]byte(tt.yaml)); err == nil {
			t.Errorf("%s: accepted", tt.name)
		}
	}
}

func TestLoadAuthority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authority.yaml")
	data := "order: [tbl, man]\nsources:\n  tbl:\n    number: 10\n  man:\n    return: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := LoadAuthority(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Mandatory(); got != Tbl {
		t.Errorf("Mandatory() = %q", got)
	}
	if rank, ok := a.Rank(Man, model.CatReturn); !ok || rank != 5 {
		t.Errorf("Rank(man, return) = %d, %v", rank, ok)
	}

	if _, err := LoadAuthority(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadAuthority on a missing file succeeded")
	}
}
