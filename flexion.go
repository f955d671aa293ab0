package morceus

import "sort"

// ParadigmCell holds the forms of a lemma for one set of features.
type ParadigmCell struct {
	InflectionContext
	Forms []string `json:"forms"`
}

// Paradigm generates every form of a lemma: each stem combined with each
// compatible ending of its table, plus the whole forms. Cells are sorted by
// their feature tokens; forms within a cell keep generation order.
func (t *Tables) Paradigm(lemma string) ([]ParadigmCell, bool) {
	l, ok := t.byLemma[lemma]
	if !ok {
		return nil, false
	}

	var cells []ParadigmCell
	index := make(map[string]int)
	add := func(ctx InflectionContext, form string) {
		key := ctx.String()
		i, ok := index[key]
		if !ok {
			i = len(cells)
			index[key] = i
			cells = append(cells, ParadigmCell{InflectionContext: ctx})
		}
		cells[i].Forms = append(cells[i].Forms, form)
	}

	for i := range l.Stems {
		stem := &l.Stems[i]
		byKey := t.lookup[stem.Inflection]
		for _, key := range sortedKeys(byKey) {
			for _, ending := range byKey[key] {
				merged, ok := mergeStemAndEnding(stem, ending)
				if !ok {
					continue
				}
				add(merged, Macronize(joinStem(stem.Stem, ending.Ending)))
			}
		}
	}
	for _, f := range l.IrregularForms {
		add(f.InflectionContext, Macronize(f.Form))
	}

	for i := range cells {
		cells[i].Forms = unique(cells[i].Forms)
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].String() < cells[j].String()
	})
	return cells, true
}

// unique returns a deduplicated slice preserving order.
func unique(ss []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
