package morceus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testdataConfig = TablesConfig{
	TemplateDirs: []string{"testdata/templates/dependency", "testdata/templates/target"},
	StemFiles:    []string{"testdata/stems/nouns.stems", "testdata/stems/verbs.stems"},
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuildTables(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := testdataConfig
	cfg.Logger = zap.New(core)

	tb, err := BuildTables(cfg)
	require.NoError(t, err)

	assert.Len(t, tb.Lemmata(), 9)
	assert.NotEmpty(t, tb.Rows())
	assert.Equal(t, 1, logs.FilterMessage("expanded templates").Len())
	assert.Equal(t, 1, logs.FilterMessage("loaded stems").Len())

	l, ok := tb.Lemma("caveo")
	require.True(t, ok)
	assert.True(t, l.IsVerb)

	names, ok := tb.EndingTables("ārum")
	require.True(t, ok)
	assert.Equal(t, []string{"a_ae", "decl1"}, names)
}

func TestBuildTablesVerbMode(t *testing.T) {
	cfg := testdataConfig
	cfg.Mode = IndexVerbs
	tb, err := BuildTables(cfg)
	require.NoError(t, err)

	_, ok := tb.EndingTables("arum")
	assert.False(t, ok)
	c := NewCruncher(tb)

	got, err := c.AnalyzeWord("amat", exact)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = c.AnalyzeWord("puella", exact)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildTablesErrors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "bad.stems", ":le:x\n:no:x nosuchtable\n")

	tests := []struct {
		name string
		cfg  TablesConfig
		want error
	}{
		{"unknown table", TablesConfig{
			TemplateDirs: testdataConfig.TemplateDirs,
			StemFiles:    []string{filepath.Join(dir, "bad.stems")},
		}, ErrMalformedStem},
		{"missing dependency", TablesConfig{
			TemplateDirs: []string{"testdata/templates/target"},
			StemFiles:    testdataConfig.StemFiles,
		}, ErrMalformedTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTables(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := BuildTables(TablesConfig{Mode: "adverbs"})
	assert.Error(t, err)
}

func TestNewTablesInconsistent(t *testing.T) {
	rows := []EndIndexRow{{Ending: "a", TableNames: []string{"a_ae"}}}
	_, err := NewTables(rows, InflectionLookup{}, nil)
	assert.ErrorIs(t, err, ErrMalformedIndexRow)
}

func TestSaveLoadTables(t *testing.T) {
	tb, err := BuildTables(testdataConfig)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveTables(&buf, tb))
	t.Logf("snapshot: %d bytes", buf.Len())

	loaded, err := LoadTables(&buf)
	require.NoError(t, err)
	assert.Equal(t, tb.Rows(), loaded.Rows())
	assert.Equal(t, tb.Lemmata(), loaded.Lemmata())

	before, after := NewCruncher(tb), NewCruncher(loaded)
	for _, word := range []string{"amat", "puellaque", "cauete", "est", "filius", "roma", "puellast", "Vt"} {
		want, err := before.AnalyzeWord(word, DefaultOptions())
		require.NoError(t, err)
		got, err := after.AnalyzeWord(word, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, want, got, word)
	}
}

func TestSaveLoadTablesFile(t *testing.T) {
	tb, err := BuildTables(testdataConfig)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tables.json.gz")
	require.NoError(t, SaveTablesFile(path, tb))
	loaded, err := LoadTablesFile(path)
	require.NoError(t, err)
	assert.Equal(t, tb.Rows(), loaded.Rows())

	_, err = LoadTablesFile(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLoadTablesCorrupt(t *testing.T) {
	_, err := LoadTables(bytes.NewReader([]byte("not gzip")))
	assert.Error(t, err)
}

func TestTableCache(t *testing.T) {
	var builds atomic.Int32
	cache := NewTableCache(func() (*Tables, error) {
		builds.Add(1)
		return BuildTables(testdataConfig)
	})

	var wg sync.WaitGroup
	results := make([]*Tables, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tb, err := cache.Get()
			assert.NoError(t, err)
			results[i] = tb
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), builds.Load())
	for _, tb := range results {
		assert.Same(t, results[0], tb)
	}

	cache.Invalidate()
	tb, err := cache.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(2), builds.Load())
	assert.NotSame(t, results[0], tb)
}

func TestTableCacheError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	cache := NewTableCache(func() (*Tables, error) {
		calls++
		return nil, boom
	})
	_, err := cache.Get()
	assert.ErrorIs(t, err, boom)
	_, err = cache.Get()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
