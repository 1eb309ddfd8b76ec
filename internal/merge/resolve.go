// Package merge aligns partial records from independent sources by canonical
// identity and folds them into the canonical syscall table.
package merge

import (
	"fmt"
	"strings"

	"sysgen/internal/model"
)

// Index maps names and entry symbols to syscall numbers, built from the
// mandatory source. Resolution is exact-string after normalizing a small set
// of known prefix conventions; ambiguous keys resolve to nothing rather than
// guessing.
type Index struct {
	numbers   map[int]bool
	byName    map[string]int
	byEntry   map[string]int
	ambiguous map[string]bool
}

// normalizeName strips the known kernel and wrapper prefix conventions so
// "__x64_sys_exit", "sys_exit", and "exit" align.
func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "__x64_")
	name = strings.TrimPrefix(name, "sys_")
	name = strings.TrimPrefix(name, "__")
	return name
}

// BuildIndex builds the identity index from the mandatory source's partials.
func BuildIndex(seed []model.Partial) *Index {
	ix := &Index{
		numbers:   make(map[int]bool),
		byName:    make(map[string]int),
		byEntry:   make(map[string]int),
		ambiguous: make(map[string]bool),
	}
	for _, p := range seed {
		if p.Number < 0 {
			continue
		}
		ix.numbers[p.Number] = true
		if p.Name.Known {
			ix.addName(ix.byName, p.Name.Value, p.Number)
			ix.addName(ix.byName, normalizeName(p.Name.Value), p.Number)
		}
		if p.Entry.Known {
			ix.addName(ix.byEntry, p.Entry.Value, p.Number)
			ix.addName(ix.byEntry, normalizeName(p.Entry.Value), p.Number)
		}
	}
	return ix
}

func (ix *Index) addName(m map[string]int, key string, number int) {
	if prev, ok := m[key]; ok && prev != number {
		ix.ambiguous[key] = true
		return
	}
	m[key] = number
}

// Resolve maps a partial record to its canonical syscall number. A partial
// carrying a number is keyed by it; otherwise its name and entry symbol are
// looked up. reason describes the failure when ok is false.
func (ix *Index) Resolve(p model.Partial) (number int, ok bool, reason string) {
	if p.Number >= 0 {
		if !ix.numbers[p.Number] {
			return 0, false, fmt.Sprintf("number %d not in the mandatory source", p.Number)
		}
		return p.Number, true, ""
	}

	var keys []string
	if p.Name.Known {
		keys = append(keys, p.Name.Value, normalizeName(p.Name.Value))
	}
	if p.Entry.Known {
		keys = append(keys, p.Entry.Value, normalizeName(p.Entry.Value))
	}
	for _, m := range []map[string]int{ix.byName, ix.byEntry} {
		for _, key := range keys {
			if ix.ambiguous[key] {
				return 0, false, fmt.Sprintf("name %q is ambiguous", key)
			}
			if n, found := m[key]; found {
				return n, true, ""
			}
		}
	}

	ident := p.Name.Or(p.Entry.Or("?"))
	return 0, false, fmt.Sprintf("%q does not match any known syscall", ident)
}
