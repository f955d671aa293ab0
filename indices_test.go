package morceus

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndIndexRowRoundTrip(t *testing.T) {
	rows := []EndIndexRow{
		{Ending: "arum", TableNames: []string{"a_ae", "decl1"}},
		{Ending: "*", TableNames: []string{"indecl"}},
		{Ending: "ibus", TableNames: []string{"decl3", "decl4", "a_ae"}},
	}
	for _, row := range rows {
		got, err := ParseEndIndexRow(row.String())
		require.NoError(t, err)
		assert.Equal(t, row, got)
	}
}

func TestParseEndIndexRowErrors(t *testing.T) {
	for _, s := range []string{"", "arum", "arum t1 t2 t1"} {
		_, err := ParseEndIndexRow(s)
		assert.ErrorIs(t, err, ErrMalformedIndexRow, "row %q", s)
	}
}

func testTables() map[string]*InflectionTable {
	ctx := func(tokens ...string) InflectionContext {
		cs, err := ParseContexts(tokens)
		if err != nil {
			panic(err)
		}
		return cs[0]
	}
	return map[string]*InflectionTable{
		"a_ae": {Name: "a_ae", Endings: []InflectionEnding{
			{Ending: "a", InflectionContext: ctx("nom", "sg")},
			{Ending: "a_", InflectionContext: ctx("abl", "sg")},
			{Ending: "a_rum", InflectionContext: ctx("gen", "pl")},
		}},
		"conj1": {Name: "conj1", Endings: []InflectionEnding{
			{Ending: "at", InflectionContext: ctx("pres", "ind", "act", "3rd", "sg")},
			{Ending: "a_", InflectionContext: ctx("pres", "imperat", "act", "2nd", "sg")},
		}},
		"pp4": {Name: "pp4", Endings: []InflectionEnding{
			{Ending: "us", InflectionContext: ctx("perf", "part", "pass", "masc", "nom", "sg")},
		}},
	}
}

func TestMakeEndIndex(t *testing.T) {
	rows, lookup := MakeEndIndex(testTables(), IndexAll)

	want := []EndIndexRow{
		{Ending: "a", TableNames: []string{"a_ae", "conj1"}},
		{Ending: "arum", TableNames: []string{"a_ae"}},
		{Ending: "at", TableNames: []string{"conj1"}},
		{Ending: "us", TableNames: []string{"pp4"}},
	}
	assert.Equal(t, want, rows)

	// "a" and "a_" share a key in a_ae.
	require.Len(t, lookup["a_ae"]["a"], 2)
	assert.Equal(t, "a", lookup["a_ae"]["a"][0].Ending)
	assert.Equal(t, "a_", lookup["a_ae"]["a"][1].Ending)
}

func TestMakeEndIndexModes(t *testing.T) {
	tables := func(rows []EndIndexRow) []string {
		var names []string
		for _, r := range rows {
			for _, n := range r.TableNames {
				if !slices.Contains(names, n) {
					names = append(names, n)
				}
			}
		}
		return names
	}

	verbs, lookup := MakeEndIndex(testTables(), IndexVerbs)
	assert.ElementsMatch(t, []string{"conj1", "pp4"}, tables(verbs))
	assert.NotContains(t, lookup, "a_ae")

	nouns, _ := MakeEndIndex(testTables(), IndexNouns)
	assert.ElementsMatch(t, []string{"a_ae", "pp4"}, tables(nouns))
}

func TestParseIndexMode(t *testing.T) {
	for _, s := range []string{"", "all", "verbs", "nouns"} {
		_, err := ParseIndexMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseIndexMode("adverbs")
	assert.Error(t, err)
}

func TestWriteReadEndIndex(t *testing.T) {
	rows, _ := MakeEndIndex(testTables(), IndexAll)

	var buf bytes.Buffer
	require.NoError(t, WriteEndIndex(&buf, rows))
	t.Logf("end index:\n%s", buf.String())

	got, err := ReadEndIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadEndIndexMalformed(t *testing.T) {
	_, err := ReadEndIndex(strings.NewReader("a t1\n\nbad\n"))
	assert.ErrorIs(t, err, ErrMalformedIndexRow)
	assert.Contains(t, err.Error(), "line 3")
}

func TestEndsTrie(t *testing.T) {
	rows, _ := MakeEndIndex(testTables(), IndexAll)
	tr := EndsTrie(rows)

	got, ok := tr.Find("a", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"a_ae", "conj1"}, got)

	_, ok = tr.Find("ar", 2)
	assert.False(t, ok)
}
