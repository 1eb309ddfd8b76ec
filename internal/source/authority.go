package source

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sysgen/internal/model"
)

//go:embed authority.yaml
var defaultAuthorityYAML []byte

// Authority is the externalized source × field-category → rank table, plus
// the fixed source processing order used for rank tie-breaks.
type Authority struct {
	Order []string                          `yaml:"order"`
	Ranks map[string]map[model.Category]int `yaml:"sources"`
}

// ParseAuthority decodes and validates an authority table.
func ParseAuthority(data []byte) (*Authority, error) {
	var a Authority
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	if len(a.Order) == 0 {
		return nil, fmt.Errorf("authority: empty source order")
	}
	pos := make(map[string]bool, len(a.Order))
	for _, s := range a.Order {
		if pos[s] {
			return nil, fmt.Errorf("authority: source %q listed twice in order", s)
		}
		pos[s] = true
	}
	for s := range a.Ranks {
		if !pos[s] {
			return nil, fmt.Errorf("authority: source %q has ranks but no position in order", s)
		}
	}
	return &a, nil
}

// DefaultAuthority returns the built-in table.
func DefaultAuthority() *Authority {
	a, err := ParseAuthority(defaultAuthorityYAML)
	if err != nil {
		panic(err) // embedded table is validated by tests
	}
	return a
}

// LoadAuthority reads an authority table from a YAML file.
func LoadAuthority(path string) (*Authority, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	return ParseAuthority(data)
}

// Rank returns the rank of a source for a field category. ok is false when
// the source does not contribute that category at all.
func (a *Authority) Rank(source string, cat model.Category) (rank int, ok bool) {
	ranks, ok := a.Ranks[source]
	if !ok {
		return 0, false
	}
	rank, ok = ranks[cat]
	return rank, ok
}

// OrderIndex returns the processing position of a source; unknown sources
// sort last.
func (a *Authority) OrderIndex(source string) int {
	for i, s := range a.Order {
		if s == source {
			return i
		}
	}
	return len(a.Order)
}

// Mandatory returns the source ranked for syscall numbering. Its absence at
// run time is fatal to the whole run.
func (a *Authority) Mandatory() string {
	best, bestRank := "", -1
	for _, s := range a.Order {
		if r, ok := a.Rank(s, model.CatNumber); ok && r > bestRank {
			best, bestRank = s, r
		}
	}
	return best
}
