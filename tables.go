package morceus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Tables is the immutable data a Cruncher reads: the end index, the
// per-table endings and the stem map. Nothing modifies a Tables value after
// construction, so one value can serve any number of goroutines.
type Tables struct {
	rows    []EndIndexRow
	ends    *Trie[string]
	lookup  InflectionLookup
	stems   StemMap
	lemmata []Lemma
	byLemma map[string]*Lemma
}

// TablesConfig says where BuildTables finds its input.
type TablesConfig struct {
	// TemplateDirs hold the .end template files.
	TemplateDirs []string
	// StemFiles hold the lemma and stem definitions.
	StemFiles []string
	// Mode restricts the end index to a subset of tables.
	Mode IndexMode
	// Logger receives progress messages. Nil disables logging.
	Logger *zap.Logger
}

// BuildTables loads and expands the templates, indexes the endings and
// loads the stems. Any malformed input aborts construction.
func BuildTables(cfg TablesConfig) (*Tables, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	mode, err := ParseIndexMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}

	templates, err := LoadTemplateDirs(cfg.TemplateDirs...)
	if err != nil {
		return nil, err
	}
	expanded, err := ExpandTemplates(templates)
	if err != nil {
		return nil, err
	}
	rows, lookup := MakeEndIndex(expanded, mode)
	log.Info("expanded templates",
		zap.Int("templates", len(templates)),
		zap.Int("tables", len(lookup)),
		zap.Int("endings", len(rows)))

	lemmata, err := LoadStemFiles(cfg.StemFiles...)
	if err != nil {
		return nil, err
	}
	if mode == IndexAll {
		if err := checkStemTables(lemmata, lookup); err != nil {
			return nil, err
		}
	}
	t, err := NewTables(rows, lookup, lemmata)
	if err != nil {
		return nil, err
	}
	log.Info("loaded stems",
		zap.Int("lemmata", len(lemmata)),
		zap.Int("stemKeys", len(t.stems)))
	return t, nil
}

// NewTables assembles tables from an existing index and lemma list, for
// example fixture data or a loaded snapshot. Every table named by a row must
// be present in lookup.
func NewTables(rows []EndIndexRow, lookup InflectionLookup, lemmata []Lemma) (*Tables, error) {
	for _, row := range rows {
		for _, name := range row.TableNames {
			if _, ok := lookup[name][row.Ending]; !ok {
				return nil, fmt.Errorf("%w: ending %s of table %s missing from lookup", ErrMalformedIndexRow, row.Ending, name)
			}
		}
	}
	t := &Tables{
		rows:    rows,
		ends:    EndsTrie(rows),
		lookup:  lookup,
		stems:   MakeStemMap(lemmata),
		lemmata: lemmata,
		byLemma: make(map[string]*Lemma, len(lemmata)),
	}
	for i := range lemmata {
		if _, dup := t.byLemma[lemmata[i].Lemma]; !dup {
			t.byLemma[lemmata[i].Lemma] = &lemmata[i]
		}
	}
	return t, nil
}

func checkStemTables(lemmata []Lemma, lookup InflectionLookup) error {
	for _, l := range lemmata {
		for _, s := range l.Stems {
			if _, ok := lookup[s.Inflection]; !ok {
				return fmt.Errorf("%w: lemma %s uses unknown table %s", ErrMalformedStem, l.Lemma, s.Inflection)
			}
		}
	}
	return nil
}

// Rows returns the end index rows.
func (t *Tables) Rows() []EndIndexRow {
	return t.rows
}

// Lemmata returns the loaded lemmata.
func (t *Tables) Lemmata() []Lemma {
	return t.lemmata
}

// Lemma looks up a lemma by headword.
func (t *Tables) Lemma(name string) (*Lemma, bool) {
	l, ok := t.byLemma[name]
	return l, ok
}

// EndingTables returns the names of the tables producing an ending, given
// without quantity marks.
func (t *Tables) EndingTables(ending string) ([]string, bool) {
	key := endingLookupKey(ending)
	return t.ends.Find(key, len([]rune(key)))
}

// snapshotVersion guards against reading snapshots written by an
// incompatible build.
const snapshotVersion = 1

type snapshot struct {
	Version int              `json:"version"`
	Rows    []string         `json:"rows"`
	Lookup  InflectionLookup `json:"lookup"`
	Lemmata []Lemma          `json:"lemmata"`
}

// SaveTables writes a compressed snapshot of t, from which LoadTables
// rebuilds the tables without expanding any template.
func SaveTables(w io.Writer, t *Tables) error {
	snap := snapshot{
		Version: snapshotVersion,
		Rows:    make([]string, len(t.rows)),
		Lookup:  t.lookup,
		Lemmata: t.lemmata,
	}
	for i, row := range t.rows {
		snap.Rows[i] = row.String()
	}
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode tables: %w", err)
	}
	return zw.Close()
}

// LoadTables reads a snapshot written by SaveTables.
func LoadTables(r io.Reader) (*Tables, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer zr.Close()

	var snap snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("tables snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	rows := make([]EndIndexRow, len(snap.Rows))
	for i, s := range snap.Rows {
		row, err := ParseEndIndexRow(s)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return NewTables(rows, snap.Lookup, snap.Lemmata)
}

// SaveTablesFile writes a snapshot to path.
func SaveTablesFile(path string, t *Tables) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err := SaveTables(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTablesFile reads a snapshot from path.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}

// TableCache builds tables on first use and keeps them until Invalidate is
// called. A failed build is not cached.
type TableCache struct {
	mu     sync.Mutex
	build  func() (*Tables, error)
	tables *Tables
}

// NewTableCache returns a cache around build.
func NewTableCache(build func() (*Tables, error)) *TableCache {
	return &TableCache{build: build}
}

// Get returns the cached tables, building them if needed.
func (c *TableCache) Get() (*Tables, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tables != nil {
		return c.tables, nil
	}
	t, err := c.build()
	if err != nil {
		return nil, err
	}
	c.tables = t
	return t, nil
}

// Invalidate drops the cached tables; the next Get rebuilds them.
func (c *TableCache) Invalidate() {
	c.mu.Lock()
	c.tables = nil
	c.mu.Unlock()
}
