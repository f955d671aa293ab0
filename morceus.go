// Package morceus provides Latin morphological analysis: it expands compact
// paradigm templates into ending tables, indexes the endings in a trie, and
// decomposes word forms into a known stem plus an ending, reporting the
// lemma and the grammatical features of every valid decomposition.
//
// Table construction happens once; the resulting Tables value is read-only
// and can be shared by any number of goroutines.
package morceus

// New builds tables from cfg and returns a cruncher reading them.
func New(cfg TablesConfig) (*Cruncher, error) {
	t, err := BuildTables(cfg)
	if err != nil {
		return nil, err
	}
	return NewCruncher(t), nil
}
