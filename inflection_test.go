package morceus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeContexts(t *testing.T) {
	a := InflectionContext{Data: GrammaticalData{Case: Nominative}, Tags: []string{"poetic"}}
	b := InflectionContext{Data: GrammaticalData{Number: Singular}, Tags: []string{"poetic", "rare"}}

	got, ok := MergeContexts(a, b)
	require.True(t, ok)
	assert.Equal(t, GrammaticalData{Case: Nominative, Number: Singular}, got.Data)
	assert.Equal(t, []string{"poetic", "rare"}, got.Tags)

	// Merging is symmetric on data and on the tag set.
	rev, ok := MergeContexts(b, a)
	require.True(t, ok)
	assert.True(t, got.Equal(rev))
}

func TestMergeContextsConflict(t *testing.T) {
	a := InflectionContext{Data: GrammaticalData{Case: Nominative}}
	b := InflectionContext{Data: GrammaticalData{Case: Accusative}}

	_, ok := MergeContexts(a, b)
	assert.False(t, ok)
}

func TestMergeContextsIdentity(t *testing.T) {
	a := InflectionContext{
		Data:         GrammaticalData{Tense: Present, Mood: Indicative, Voice: Active},
		InternalTags: []string{TagNoFuture},
	}
	got, ok := MergeContexts(a, InflectionContext{})
	require.True(t, ok)
	assert.True(t, got.Equal(a))

	self, ok := MergeContexts(a, a)
	require.True(t, ok)
	assert.True(t, self.Equal(a))
}

func TestMergeDoesNotAlias(t *testing.T) {
	a := InflectionContext{Tags: make([]string, 1, 8)}
	a.Tags[0] = "x"
	got, ok := MergeContexts(a, InflectionContext{})
	require.True(t, ok)
	got.Tags = append(got.Tags, "y")
	assert.Equal(t, []string{"x"}, a.Tags)
	assert.Empty(t, a.Tags[:2][1])
}

func TestParseContexts(t *testing.T) {
	got, err := ParseContexts([]string{"nom/voc", "sg", "poetic", TagCompoundOnly})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, GrammaticalData{Case: Nominative, Number: Singular}, got[0].Data)
	assert.Equal(t, GrammaticalData{Case: Vocative, Number: Singular}, got[1].Data)
	for _, c := range got {
		assert.Equal(t, []string{"poetic"}, c.Tags)
		assert.True(t, c.HasInternalTag(TagCompoundOnly))
	}
}

func TestParseContextsCrossProduct(t *testing.T) {
	got, err := ParseContexts([]string{"dat/abl", "sg/pl"})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestParseContextsErrors(t *testing.T) {
	tests := [][]string{
		{"nom", "acc"},
		{"nom/xyz"},
		{"sg", "nom/pl"},
	}
	for _, tokens := range tests {
		_, err := ParseContexts(tokens)
		assert.ErrorIs(t, err, ErrMalformedContext, "tokens %v", tokens)
	}
}

func TestParseContextsEmpty(t *testing.T) {
	got, err := ParseContexts(nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Data.IsEmpty())
}

func TestGrammaticalDataText(t *testing.T) {
	d := GrammaticalData{Case: Genitive, Number: Plural, Gender: Neuter}
	assert.Equal(t, "gen pl neut", d.String())

	b, err := json.Marshal(InflectionContext{Data: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"grammaticalData":"gen pl neut"}`, string(b))

	var back InflectionContext
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back.Data)

	var bad GrammaticalData
	assert.ErrorIs(t, bad.UnmarshalText([]byte("gen dat")), ErrMalformedContext)
}
