package morceus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// EndIndexRow records which tables can produce an ending. Ending is the
// lookup key: the ending without quantity marks, or "*" for the empty ending.
type EndIndexRow struct {
	Ending     string   `json:"ending"`
	TableNames []string `json:"tableNames"`
}

// ErrMalformedIndexRow is returned by ParseEndIndexRow.
var ErrMalformedIndexRow = errors.New("malformed end index row")

// String renders the row as space separated fields: the ending, then the
// table names in their stored order.
func (r EndIndexRow) String() string {
	return r.Ending + " " + strings.Join(r.TableNames, " ")
}

// ParseEndIndexRow parses the output of EndIndexRow.String.
func ParseEndIndexRow(s string) (EndIndexRow, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return EndIndexRow{}, fmt.Errorf("%w: %q needs an ending and at least one table", ErrMalformedIndexRow, s)
	}
	names := fields[1:]
	for i, name := range names {
		if slices.Contains(names[:i], name) {
			return EndIndexRow{}, fmt.Errorf("%w: table %s listed twice in %q", ErrMalformedIndexRow, name, s)
		}
	}
	return EndIndexRow{Ending: fields[0], TableNames: names}, nil
}

// IndexMode selects which tables go into an end index.
type IndexMode string

const (
	IndexAll   IndexMode = "all"
	IndexVerbs IndexMode = "verbs"
	IndexNouns IndexMode = "nouns"
)

var verbTables = map[string]bool{
	"conj1":    true,
	"conj2":    true,
	"conj3":    true,
	"conj4":    true,
	"conj3_io": true,
	"perfstem": true,
	"ivperf":   true,
	"avperf":   true,
	"evperf":   true,
}

// includes reports whether the table belongs to the index. Perfect passive
// participles (pp4) belong to both verbs and nouns.
func (m IndexMode) includes(table string) bool {
	switch m {
	case IndexVerbs:
		return table == "pp4" || verbTables[table]
	case IndexNouns:
		return !verbTables[table]
	default:
		return true
	}
}

// ParseIndexMode validates a mode name. The empty string selects IndexAll.
func ParseIndexMode(s string) (IndexMode, error) {
	switch IndexMode(s) {
	case "", IndexAll:
		return IndexAll, nil
	case IndexVerbs, IndexNouns:
		return IndexMode(s), nil
	}
	return "", fmt.Errorf("unknown index mode %q", s)
}

// InflectionLookup maps table name to ending key to the endings of that
// table with that key.
type InflectionLookup map[string]map[string][]InflectionEnding

// MakeEndIndex builds the end index rows and the per-table lookup for the
// tables selected by mode. Rows are sorted by ending and table names within a
// row are sorted.
func MakeEndIndex(tables map[string]*InflectionTable, mode IndexMode) ([]EndIndexRow, InflectionLookup) {
	index := make(map[string][]string)
	lookup := make(InflectionLookup)
	for _, name := range sortedKeys(tables) {
		if !mode.includes(name) {
			continue
		}
		byKey := make(map[string][]InflectionEnding)
		for _, end := range tables[name].Endings {
			key := endingLookupKey(end.Ending)
			if !slices.Contains(index[key], name) {
				index[key] = append(index[key], name)
			}
			byKey[key] = append(byKey[key], end)
		}
		lookup[name] = byKey
	}
	rows := make([]EndIndexRow, 0, len(index))
	for _, ending := range sortedKeys(index) {
		names := index[ending]
		slices.Sort(names)
		rows = append(rows, EndIndexRow{Ending: ending, TableNames: names})
	}
	return rows, lookup
}

func endingLookupKey(ending string) string {
	if ending == emptyEnding {
		return emptyEnding
	}
	if key := StripLengths(ending); key != "" {
		return key
	}
	return emptyEnding
}

// EndsTrie indexes rows by ending for suffix lookups.
func EndsTrie(rows []EndIndexRow) *Trie[string] {
	m := make(map[string][]string, len(rows))
	for _, row := range rows {
		m[row.Ending] = append(m[row.Ending], row.TableNames...)
	}
	return FromMap(m)
}

// WriteEndIndex writes one row per line.
func WriteEndIndex(w io.Writer, rows []EndIndexRow) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		if _, err := fmt.Fprintln(bw, row.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadEndIndex reads rows written by WriteEndIndex. Blank lines are skipped;
// any malformed row fails the whole read.
func ReadEndIndex(r io.Reader) ([]EndIndexRow, error) {
	var rows []EndIndexRow
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		row, err := ParseEndIndexRow(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}
