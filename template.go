package morceus

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// emptyEnding stands for a zero-length ending in tables and indices.
const emptyEnding = "*"

// InflectionEnding is one concrete ending and the features it marks.
// Ending keeps the quantity marks of the table data.
type InflectionEnding struct {
	Ending string `json:"ending"`
	InflectionContext
}

// InflectionTable is a fully expanded paradigm table.
type InflectionTable struct {
	Name    string             `json:"name"`
	Endings []InflectionEnding `json:"endings"`
}

// TemplateDependency is an inclusion of another template's expanded table.
// Every ending of that table is prefixed with Prefix and merged with each of
// Contexts; cells whose merge fails are dropped.
type TemplateDependency struct {
	Name     string
	Prefix   string
	Contexts []InflectionContext
}

// Template is the compact, hand-authored form of a paradigm table: its own
// cells plus inclusions of other templates.
type Template struct {
	Name  string
	Cells []InflectionEnding
	Deps  []TemplateDependency
}

// ErrMalformedTemplate is returned when template data cannot be turned into
// a complete set of tables.
var ErrMalformedTemplate = errors.New("malformed template")

// joinEnding appends ending to prefix, honoring the empty-ending marker.
func joinEnding(prefix, ending string) string {
	if ending == emptyEnding {
		ending = ""
	}
	if prefix == emptyEnding {
		prefix = ""
	}
	if joined := prefix + ending; joined != "" {
		return joined
	}
	return emptyEnding
}

type endingKey struct {
	ending string
	data   GrammaticalData
}

// dedupeEndings collapses endings with the same text and grammatical data,
// merging their tags. The first occurrence keeps its position.
func dedupeEndings(endings []InflectionEnding) []InflectionEnding {
	seen := make(map[endingKey]int, len(endings))
	out := make([]InflectionEnding, 0, len(endings))
	for _, e := range endings {
		k := endingKey{e.Ending, e.Data}
		if i, ok := seen[k]; ok {
			out[i].Tags = unionTags(out[i].Tags, e.Tags)
			out[i].InternalTags = unionTags(out[i].InternalTags, e.InternalTags)
			continue
		}
		seen[k] = len(out)
		out = append(out, e)
	}
	return out
}

// ExpandCells attaches stem to every cell and merges each cell's context
// with ctx. Cells that conflict with ctx are dropped. The result holds no two
// endings with the same text and grammatical data.
func ExpandCells(stem string, ctx InflectionContext, cells []InflectionEnding) []InflectionEnding {
	out := make([]InflectionEnding, 0, len(cells))
	for _, cell := range cells {
		merged, ok := MergeContexts(cell.InflectionContext, ctx)
		if !ok {
			continue
		}
		out = append(out, InflectionEnding{
			Ending:            joinEnding(stem, cell.Ending),
			InflectionContext: merged,
		})
	}
	return dedupeEndings(out)
}

// ExpandTemplate expands a single template whose dependencies are all in
// expanded.
func ExpandTemplate(t *Template, expanded map[string]*InflectionTable) (*InflectionTable, error) {
	endings := slices.Clone(t.Cells)
	for _, dep := range t.Deps {
		table, ok := expanded[dep.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: dependency %s is not expanded", ErrMalformedTemplate, t.Name, dep.Name)
		}
		contexts := dep.Contexts
		if len(contexts) == 0 {
			contexts = []InflectionContext{{}}
		}
		for _, ctx := range contexts {
			endings = append(endings, ExpandCells(dep.Prefix, ctx, table.Endings)...)
		}
	}
	endings = dedupeEndings(endings)
	if len(endings) == 0 {
		return nil, fmt.Errorf("%w: %s expands to no endings", ErrMalformedTemplate, t.Name)
	}
	return &InflectionTable{Name: t.Name, Endings: endings}, nil
}

// ExpandTemplates expands every template, resolving dependencies first.
// A duplicate name, a missing dependency or a dependency cycle aborts the
// whole expansion.
func ExpandTemplates(templates []*Template) (map[string]*InflectionTable, error) {
	pending := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if _, dup := pending[t.Name]; dup {
			return nil, fmt.Errorf("%w: template %s defined twice", ErrMalformedTemplate, t.Name)
		}
		pending[t.Name] = t
	}
	for _, t := range templates {
		for _, dep := range t.Deps {
			if _, ok := pending[dep.Name]; !ok {
				return nil, fmt.Errorf("%w: %s depends on unknown template %s", ErrMalformedTemplate, t.Name, dep.Name)
			}
		}
	}

	expanded := make(map[string]*InflectionTable, len(templates))
	for len(pending) > 0 {
		var ready []string
		for name, t := range pending {
			if depsExpanded(t, expanded) {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return nil, fmt.Errorf("%w: dependency cycle among %v", ErrMalformedTemplate, sortedKeys(pending))
		}
		sort.Strings(ready)
		for _, name := range ready {
			table, err := ExpandTemplate(pending[name], expanded)
			if err != nil {
				return nil, err
			}
			expanded[name] = table
			delete(pending, name)
		}
	}
	return expanded, nil
}

func depsExpanded(t *Template, expanded map[string]*InflectionTable) bool {
	for _, dep := range t.Deps {
		if _, ok := expanded[dep.Name]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
