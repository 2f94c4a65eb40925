// Package keywords expands topic keyword lists with homophone and
// near-synonym variants to improve recall for colloquial phrasing.
package keywords

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed homophones.yaml
var defaultTableYAML []byte

// SubstitutionTable maps an original fragment to the variant fragments that
// should also match. The table is data, not logic: editing the YAML changes
// matching behavior without touching the algorithm.
type SubstitutionTable map[string][]string

// Expander derives expanded keyword sets from a fixed substitution table.
// Expand is pure: the same input always yields the same set.
type Expander struct {
	table SubstitutionTable
}

// NewExpander creates an expander backed by the embedded default table.
// A malformed embedded table degrades to no expansion rather than failing.
func NewExpander() *Expander {
	table, err := parseTable(defaultTableYAML)
	if err != nil {
		slog.Warn("homophone table unavailable, keyword expansion disabled",
			slog.String("error", err.Error()))
		table = SubstitutionTable{}
	}
	return &Expander{table: table}
}

// NewExpanderFromFile creates an expander from an external YAML table.
func NewExpanderFromFile(path string) (*Expander, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading substitution table: %w", err)
	}
	table, err := parseTable(data)
	if err != nil {
		return nil, err
	}
	return &Expander{table: table}, nil
}

func parseTable(data []byte) (SubstitutionTable, error) {
	var table SubstitutionTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing substitution table: %w", err)
	}
	if table == nil {
		table = SubstitutionTable{}
	}
	return table, nil
}

// Expand returns the deduplicated set of the given keywords plus, for every
// keyword containing a table fragment, one variant keyword per substitution
// with that fragment replaced. The result is always a superset of keywords.
func (e *Expander) Expand(keywords []string) map[string]struct{} {
	out := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		out[kw] = struct{}{}
		for fragment, variants := range e.table {
			if !strings.Contains(kw, fragment) {
				continue
			}
			for _, v := range variants {
				out[strings.ReplaceAll(kw, fragment, v)] = struct{}{}
			}
		}
	}
	return out
}
