package source

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagMalformed   DiagKind = "malformed"   // entry did not match the grammar
	DiagUnparseable DiagKind = "unparseable" // declaration too complex for the C parser
	DiagDuplicate   DiagKind = "duplicate"   // repeated declaration, earlier one replaced
	DiagUnresolved  DiagKind = "unresolved"  // record could not be matched to a syscall number
)

// Diag records a non-fatal issue encountered while parsing or resolving.
type Diag struct {
	Source string   `json:"source"`
	Line   int      `json:"line,omitempty"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
}

func (d Diag) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] %s:%d: %s", d.Kind, d.Source, d.Line, d.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Source, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(source string, line int, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Source: source, Line: line, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(source string, line int, kind DiagKind, format string, args ...any) {
	d.Add(source, line, kind, fmt.Sprintf(format, args...))
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }
