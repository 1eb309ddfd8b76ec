package model

import (
	"fmt"
	"strings"
)

// ValidationError reports canonical-model invariant violations found after
// merge. It is fatal: renderers never see an invalid table.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model: invalid canonical table: %s",
		strings.Join(e.Problems, "; "))
}

// Validate checks the table invariants: at least one record, numbers unique
// and non-negative, records ordered by number, and every known field backed
// by at least one contributing source. Partial knowledge (unknown fields) is
// a valid end state and does not fail validation.
func Validate(t *Table) error {
	var problems []string

	if len(t.Records) == 0 {
		problems = append(problems, "no records (mandatory source missing or empty)")
	}

	seen := make(map[int]string, len(t.Records))
	prev := -1
	for i := range t.Records {
		r := &t.Records[i]
		if r.Number < 0 {
			problems = append(problems, fmt.Sprintf("record %q has negative number %d", r.Name.Value, r.Number))
			continue
		}
		if other, dup := seen[r.Number]; dup {
			problems = append(problems, fmt.Sprintf("duplicate number %d (%q and %q)", r.Number, other, r.Name.Value))
		}
		seen[r.Number] = r.Name.Value
		if r.Number < prev {
			problems = append(problems, fmt.Sprintf("records not ordered at number %d", r.Number))
		}
		prev = r.Number
		if hasKnownField(r) && len(r.Sources) == 0 {
			problems = append(problems, fmt.Sprintf("record %d has known fields but no sources", r.Number))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func hasKnownField(r *Record) bool {
	return r.Name.Known || r.Entry.Known || r.Return.Known || r.Params != nil
}
