package morceus

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseTemplate(t *testing.T, name, src string) *Template {
	t.Helper()
	tmpl, err := ParseTemplate(name, strings.NewReader(src))
	require.NoError(t, err)
	return tmpl
}

func TestParseTemplate(t *testing.T) {
	tmpl := mustParseTemplate(t, "mixed", `
# comment
a nom/voc sg
a_rum gen pl poetic
*@decl2 masc
i@decl2
`)
	require.Len(t, tmpl.Cells, 3)
	assert.Equal(t, "a", tmpl.Cells[0].Ending)
	assert.Equal(t, Vocative, tmpl.Cells[1].Data.Case)
	assert.Equal(t, []string{"poetic"}, tmpl.Cells[2].Tags)

	require.Len(t, tmpl.Deps, 2)
	assert.Equal(t, "", tmpl.Deps[0].Prefix)
	require.Len(t, tmpl.Deps[0].Contexts, 1)
	assert.Equal(t, Masculine, tmpl.Deps[0].Contexts[0].Data.Gender)
	assert.Equal(t, "i", tmpl.Deps[1].Prefix)
	assert.Empty(t, tmpl.Deps[1].Contexts)
}

func TestParseTemplateErrors(t *testing.T) {
	tests := map[string]string{
		"no data":     "a poetic\n",
		"bad dep":     "i@\n",
		"two deps":    "i@a@b\n",
		"conflict":    "a nom acc\n",
		"empty":       "# nothing here\n",
		"bad dep arg": "@decl1 nom/xyz\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTemplate(name, strings.NewReader(src))
			assert.ErrorIs(t, err, ErrMalformedTemplate)
		})
	}
}

func TestExpandCellsIdempotent(t *testing.T) {
	cells := mustParseTemplate(t, "decl1", "a nom/voc sg\nae gen sg\nae nom pl\n").Cells

	once := ExpandCells("", InflectionContext{}, cells)
	twice := ExpandCells("", InflectionContext{}, once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("expanding twice changed the cells (-once +twice):\n%s", diff)
	}
	assert.Len(t, once, 4)
}

func TestExpandCellsFilters(t *testing.T) {
	cells := mustParseTemplate(t, "decl1", "a nom sg\nae gen sg\nae nom pl\n").Cells
	sg, err := ParseContexts([]string{"sg", "fem"})
	require.NoError(t, err)

	got := ExpandCells("pu", sg[0], cells)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, Singular, e.Data.Number)
		assert.Equal(t, Feminine, e.Data.Gender)
		assert.True(t, strings.HasPrefix(e.Ending, "pu"))
	}
}

func TestExpandCellsMergesTags(t *testing.T) {
	cells := mustParseTemplate(t, "t", "a_i_ gen sg poetic\na_i_ gen sg archaic\n").Cells
	got := ExpandCells("", InflectionContext{}, cells)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []string{"poetic", "archaic"}, got[0].Tags)
}

func TestExpandCellsEmptyEnding(t *testing.T) {
	cells := mustParseTemplate(t, "t", "* nom sg\nis gen sg\n").Cells
	got := ExpandCells("", InflectionContext{}, cells)
	assert.Equal(t, "*", got[0].Ending)

	got = ExpandCells("ius", InflectionContext{}, cells)
	assert.Equal(t, "ius", got[0].Ending)
	assert.Equal(t, "iusis", got[1].Ending)
}

func TestExpandTemplates(t *testing.T) {
	base := mustParseTemplate(t, "decl2", "us nom sg\ni_ gen sg\ni_ nom pl\n")
	derived := mustParseTemplate(t, "ius_i", "i@decl2 masc sg\n")
	plain := mustParseTemplate(t, "us_i", "@decl2\ne voc sg\n")

	tables, err := ExpandTemplates([]*Template{derived, plain, base})
	require.NoError(t, err)
	require.Len(t, tables, 3)

	var endings []string
	for _, e := range tables["ius_i"].Endings {
		endings = append(endings, e.Ending)
		assert.Equal(t, Masculine, e.Data.Gender)
	}
	assert.Equal(t, []string{"ius", "ii_"}, endings)

	// Own cells come before the included ones.
	assert.Equal(t, "e", tables["us_i"].Endings[0].Ending)
	assert.Len(t, tables["us_i"].Endings, 4)
}

func TestExpandTemplatesErrors(t *testing.T) {
	a := func(src string) *Template { return mustParseTemplate(t, "a", src) }
	b := func(src string) *Template { return mustParseTemplate(t, "b", src) }

	tests := []struct {
		name      string
		templates []*Template
		msg       string
	}{
		{"missing", []*Template{a("@c\n")}, "unknown template c"},
		{"cycle", []*Template{a("@b\n"), b("@a\n")}, "cycle"},
		{"duplicate", []*Template{a("x nom\n"), a("y nom\n")}, "defined twice"},
		{"empty", []*Template{a("x nom pl\n"), b("@a sg\n")}, "no endings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandTemplates(tt.templates)
			require.ErrorIs(t, err, ErrMalformedTemplate)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadTemplateDirs(t *testing.T) {
	templates, err := LoadTemplateDirs("testdata/templates/dependency", "testdata/templates/target")
	require.NoError(t, err)
	require.Len(t, templates, 7)
	assert.Equal(t, "decl1", templates[0].Name)

	tables, err := ExpandTemplates(templates)
	require.NoError(t, err)
	if diff := cmp.Diff(tables["decl1"].Endings, tables["a_ae"].Endings); diff != "" {
		t.Errorf("a_ae differs from decl1 (-decl1 +a_ae):\n%s", diff)
	}
	assert.Len(t, tables["ius_i"].Endings, 6)
	for _, e := range tables["ius_i"].Endings {
		assert.True(t, strings.HasPrefix(e.Ending, "i"), e.Ending)
	}
}

func TestLoadTemplateDirsEmpty(t *testing.T) {
	_, err := LoadTemplateDirs(t.TempDir())
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestWriteTable(t *testing.T) {
	tables, err := ExpandTemplates([]*Template{mustParseTemplate(t, "t", "a nom/voc sg\n")})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteTable(&sb, tables["t"]))
	assert.Equal(t, "a t nom sg\na t voc sg\n", sb.String())
}
