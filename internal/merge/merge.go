package merge

import (
	"fmt"
	"sort"
	"strings"

	"sysgen/internal/ctype"
	"sysgen/internal/model"
	"sysgen/internal/source"
)

// Engine folds partial records into canonical syscall records, applying the
// externalized per-field authority ranks. Merging is pure: the same partials
// in the same source order always yield byte-identical records.
type Engine struct {
	auth *source.Authority
}

func New(auth *source.Authority) *Engine {
	return &Engine{auth: auth}
}

// Merge reconciles partials (concatenated in source processing order) into
// the canonical table. Partials that cannot be matched to a syscall number
// are dropped with an unresolved diagnostic. Duplicate numbering in the
// mandatory source is a ValidationError.
func (e *Engine) Merge(partials []model.Partial, diags *source.Diags) (*model.Table, error) {
	mandatory := e.auth.Mandatory()

	var seed []model.Partial
	var problems []string
	seen := make(map[int]bool)
	for _, p := range partials {
		if p.Source != mandatory || p.Number < 0 {
			continue
		}
		if seen[p.Number] {
			problems = append(problems, fmt.Sprintf("duplicate number %d in source %s", p.Number, mandatory))
		}
		seen[p.Number] = true
		seed = append(seed, p)
	}
	if len(problems) > 0 {
		return nil, &model.ValidationError{Problems: problems}
	}

	ix := BuildIndex(seed)

	groups := make(map[int][]model.Partial)
	var numbers []int
	for _, p := range partials {
		number, ok, reason := ix.Resolve(p)
		if !ok {
			diags.Add(p.Source, 0, source.DiagUnresolved, reason)
			continue
		}
		if _, exists := groups[number]; !exists {
			numbers = append(numbers, number)
		}
		groups[number] = append(groups[number], p)
	}
	sort.Ints(numbers)

	table := &model.Table{Records: make([]model.Record, 0, len(numbers))}
	for _, number := range numbers {
		table.Records = append(table.Records, e.mergeRecord(number, groups[number]))
	}
	return table, nil
}

// cand is one source's value for a field, tagged with that source's rank for
// the field's category and its processing position for tie-breaks.
type cand struct {
	value  string
	source string
	rank   int
	order  int
}

func (e *Engine) mergeRecord(number int, group []model.Partial) model.Record {
	rec := model.Record{Number: number, Params: nil}

	for _, p := range group {
		rec.AddSource(p.Source)
		if p.ABI != "" && rec.ABI == "" {
			rec.ABI = p.ABI
		}
	}

	rec.Name = e.mergeField(&rec, "name", model.CatName, group,
		func(p model.Partial) (string, bool) { return p.Name.Value, p.Name.Known }, eqExact)
	rec.Entry = e.mergeField(&rec, "entry", model.CatEntry, group,
		func(p model.Partial) (string, bool) { return p.Entry.Value, p.Entry.Known }, eqExact)
	rec.Params = e.mergeParams(&rec, group)
	rec.Return = e.mergeField(&rec, "return", model.CatReturn, group,
		func(p model.Partial) (string, bool) { return p.Return.Value, p.Return.Known }, eqType)

	return rec
}

func eqExact(a, b string) bool { return a == b }

// eqType compares C types ignoring whitespace and qualifiers, so "const char
// __user *" agrees with "const char *".
func eqType(a, b string) bool {
	return ctype.NormalizeType(a) == ctype.NormalizeType(b)
}

// mergeField applies the per-field algorithm: collect non-unknown values with
// their ranks, accept the agreed or highest-ranked value, and append every
// disagreeing pair to the record's conflicts.
func (e *Engine) mergeField(rec *model.Record, field string, cat model.Category,
	group []model.Partial, get func(model.Partial) (string, bool), eq func(a, b string) bool) model.Str {

	var cands []cand
	for _, p := range group {
		value, known := get(p)
		if !known {
			continue
		}
		rank, ranked := e.auth.Rank(p.Source, cat)
		if !ranked {
			continue
		}
		cands = append(cands, cand{value: value, source: p.Source, rank: rank, order: e.auth.OrderIndex(p.Source)})
	}

	accepted, ok := e.accept(rec, field, cands, eq)
	if !ok {
		return model.Str{}
	}
	return model.String(accepted.value)
}

// accept sorts candidates by rank (processing order breaking ties), takes the
// first, and records conflicts against it.
func (e *Engine) accept(rec *model.Record, field string, cands []cand, eq func(a, b string) bool) (cand, bool) {
	if len(cands) == 0 {
		return cand{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank > cands[j].rank
		}
		return cands[i].order < cands[j].order
	})
	accepted := cands[0]
	for _, other := range cands[1:] {
		if !eq(other.value, accepted.value) {
			rec.Conflicts = append(rec.Conflicts, model.Conflict{
				Field:          field,
				Accepted:       accepted.value,
				AcceptedSource: accepted.source,
				Rejected:       other.value,
				RejectedSource: other.source,
			})
		}
	}
	return accepted, true
}

// listCand is one source's whole parameter list.
type listCand struct {
	params []model.Param
	source string
	rank   int
	order  int
}

// mergeParams merges parameter lists as units: the highest-ranked list wins
// outright when arities differ (lists of different arities are never spliced
// positionally), and same-arity lists refine each other per position.
func (e *Engine) mergeParams(rec *model.Record, group []model.Partial) []model.Param {
	var cands []listCand
	for _, p := range group {
		if p.Params == nil {
			continue
		}
		rank, ranked := e.auth.Rank(p.Source, model.CatParams)
		if !ranked {
			continue
		}
		cands = append(cands, listCand{params: p.Params, source: p.Source, rank: rank, order: e.auth.OrderIndex(p.Source)})
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank > cands[j].rank
		}
		return cands[i].order < cands[j].order
	})
	arity := len(cands[0].params)

	var sameArity []listCand
	for _, c := range cands {
		if len(c.params) == arity {
			sameArity = append(sameArity, c)
			continue
		}
		rec.Conflicts = append(rec.Conflicts, model.Conflict{
			Field:          "params",
			Accepted:       paramsSummary(cands[0].params),
			AcceptedSource: cands[0].source,
			Rejected:       paramsSummary(c.params),
			RejectedSource: c.source,
		})
	}

	merged := make([]model.Param, arity)
	for i := 0; i < arity; i++ {
		var typeCands, nameCands []cand
		for _, c := range sameArity {
			if p := c.params[i]; p.Type.Known {
				typeCands = append(typeCands, cand{value: p.Type.Value, source: c.source, rank: c.rank, order: c.order})
			}
			if p := c.params[i]; p.Name.Known {
				nameCands = append(nameCands, cand{value: p.Name.Value, source: c.source, rank: c.rank, order: c.order})
			}
		}
		if accepted, ok := e.accept(rec, fmt.Sprintf("params[%d].type", i), typeCands, eqType); ok {
			merged[i].Type = model.String(accepted.value)
		}
		if accepted, ok := e.accept(rec, fmt.Sprintf("params[%d].name", i), nameCands, eqExact); ok {
			merged[i].Name = model.String(accepted.value)
		}
	}
	return merged
}

// paramsSummary renders a parameter list compactly for conflict entries.
func paramsSummary(params []model.Param) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type.Or("?")
	}
	return "(" + strings.Join(types, ", ") + ")"
}
