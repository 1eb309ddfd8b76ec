// Package model defines the canonical syscall table and the partial records
// that source parsers produce before merging.
package model

import "fmt"

// Category names a field group for authority ranking. Ranks are declared per
// source and per category, so a source can be authoritative for numbering
// without saying anything about parameter types.
type Category string

const (
	CatNumber Category = "number"
	CatName   Category = "name"
	CatEntry  Category = "entry"
	CatParams Category = "params"
	CatReturn Category = "return"
)

// Str is a string field with explicit presence. A zero Str means the value
// was never stated by any source, which is distinct from a source stating an
// empty string.
type Str struct {
	Value string `json:"value"`
	Known bool   `json:"known"`
}

// String returns a known Str.
func String(s string) Str { return Str{Value: s, Known: true} }

// Or returns the value, or fallback when unknown.
func (s Str) Or(fallback string) string {
	if s.Known {
		return s.Value
	}
	return fallback
}

// Param is one parameter of a syscall prototype. Type and name are known
// independently: musl headers state types without names, and a man page may
// name a parameter whose type no source agrees on.
type Param struct {
	Type Str `json:"type"`
	Name Str `json:"name"`
}

// Partial is a single source's incomplete view of one syscall. Every field is
// unknown by default. Params distinguishes unknown arity (nil) from a known
// empty parameter list (non-nil, length 0).
type Partial struct {
	Source string `json:"source"`

	Number int     `json:"number"` // -1 when the source does not state a number
	ABI    string  `json:"abi,omitempty"`
	Name   Str     `json:"name"`
	Entry  Str     `json:"entry"`
	Params []Param `json:"params"`
	Return Str     `json:"return"`
}

// NewPartial returns a Partial with no known fields.
func NewPartial(source string) Partial {
	return Partial{Source: source, Number: -1}
}

// Conflict records a disagreement between two sources on one field. The
// accepted value is the one that won on authority rank (or processing order
// on a rank tie); the rejected one is retained, never dropped.
type Conflict struct {
	Field          string `json:"field"`
	Accepted       string `json:"accepted"`
	AcceptedSource string `json:"accepted_source"`
	Rejected       string `json:"rejected"`
	RejectedSource string `json:"rejected_source"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %q (%s) vs %q (%s)",
		c.Field, c.Accepted, c.AcceptedSource, c.Rejected, c.RejectedSource)
}

// Record is the reconciled description of one syscall.
type Record struct {
	Number    int        `json:"number"`
	ABI       string     `json:"abi"`
	Name      Str        `json:"name"`
	Entry     Str        `json:"entry"`
	Params    []Param    `json:"params"`
	Return    Str        `json:"return"`
	Sources   []string   `json:"sources"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// HasSource reports whether source contributed to this record.
func (r *Record) HasSource(source string) bool {
	for _, s := range r.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// AddSource records a contributing source, once.
func (r *Record) AddSource(source string) {
	if !r.HasSource(source) {
		r.Sources = append(r.Sources, source)
	}
}

// Prototype renders the record as a C-style prototype for display, using "?"
// for unknown pieces. Unknown arity renders as "(?)".
func (r *Record) Prototype() string {
	s := r.Return.Or("?") + " " + r.Name.Or("?") + "("
	if r.Params == nil {
		return s + "?)"
	}
	for i, p := range r.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Type.Or("?")
		if p.Name.Known {
			s += " " + p.Name.Value
		}
	}
	return s + ")"
}

// Table is the canonical model: one record per syscall number, ordered by
// number. Frozen (read-only) once handed to renderers.
type Table struct {
	Records []Record `json:"records"`
}

// Lookup returns the record with the given number, or nil.
func (t *Table) Lookup(number int) *Record {
	for i := range t.Records {
		if t.Records[i].Number == number {
			return &t.Records[i]
		}
	}
	return nil
}
