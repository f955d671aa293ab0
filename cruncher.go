package morceus

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// enclitics are tried, in order, at the end of every candidate ending.
var enclitics = []string{"que", "ne", "ve", "ue", "met", "cum", "dum"}

// prodelisionMarks are the apostrophes found in texts that mark an elided e.
var prodelisionMarks = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// CruncherOptions are the tunables of an analysis.
type CruncherOptions struct {
	// Greedy keeps only the readings with the longest stem.
	Greedy bool `yaml:"greedy" json:"greedy"`
	// VowelLengthSensitive requires long vowels marked in the input to be
	// long in the reading, and unmarked vowels not to be long. Otherwise
	// macrons and bare vowels match each other.
	VowelLengthSensitive bool `yaml:"vowel_length_sensitive" json:"vowelLengthSensitive"`
	// RelaxCase also tries the word with the case of its first letter flipped.
	RelaxCase bool `yaml:"relax_case" json:"relaxCase"`
	// RelaxIAndJ treats i and j as spellings of one letter.
	RelaxIAndJ bool `yaml:"relax_i_and_j" json:"relaxIAndJ"`
	// RelaxUAndV treats u and v as spellings of one letter.
	RelaxUAndV bool `yaml:"relax_u_and_v" json:"relaxUAndV"`
	// Enclitics splits -que, -ne, -ve and the other enclitics off the end of
	// the word, and a prodelided est (puellast, lupust) off a host word.
	Enclitics bool `yaml:"enclitics" json:"enclitics"`
	// MinStemLength is the shortest stem, in letters, that is tried.
	MinStemLength int `yaml:"min_stem_length" json:"minStemLength"`
}

// maxMinStemLength is an upper bound for MinStemLength; no Latin stem
// needs more letters before it can be tried.
const maxMinStemLength = 32

// ErrInvalidOptions is returned for options that cannot be honored.
var ErrInvalidOptions = errors.New("invalid cruncher options")

// DefaultOptions returns the options used when a caller has no preference.
func DefaultOptions() CruncherOptions {
	return CruncherOptions{
		RelaxCase:     true,
		RelaxIAndJ:    true,
		RelaxUAndV:    true,
		Enclitics:     true,
		MinStemLength: 1,
	}
}

// Validate rejects option values before any lookup work is done.
func (o CruncherOptions) Validate() error {
	if o.MinStemLength < 0 || o.MinStemLength > maxMinStemLength {
		return fmt.Errorf("%w: min stem length %d out of range [0, %d]", ErrInvalidOptions, o.MinStemLength, maxMinStemLength)
	}
	return nil
}

// Cruncher decomposes word forms into lemma and ending using a fixed set of
// tables. It holds no mutable state and is safe for concurrent use.
type Cruncher struct {
	tables *Tables
}

// NewCruncher returns a cruncher reading from t.
func NewCruncher(t *Tables) *Cruncher {
	return &Cruncher{tables: t}
}

// Tables returns the tables the cruncher reads from.
func (c *Cruncher) Tables() *Tables {
	return c.tables
}

// AnalyzeWord returns every analysis of word grouped by lemma. A word with
// no analysis yields an empty result and no error; only invalid options
// are reported as errors.
func (c *Cruncher) AnalyzeWord(word string, opts CruncherOptions) ([]LatinWordAnalysis, error) {
	readings, err := c.Crunch(word, opts)
	if err != nil {
		return nil, err
	}
	return groupReadings(readings), nil
}

// Resolve analyzes word and classifies the outcome as none, unique or
// ambiguous.
func (c *Cruncher) Resolve(word string, opts CruncherOptions) (Resolution, error) {
	analyses, err := c.AnalyzeWord(word, opts)
	if err != nil {
		return Resolution{}, err
	}
	return resolve(analyses), nil
}

// Crunch returns the individual readings of word, longest stems first.
func (c *Cruncher) Crunch(word string, opts CruncherOptions) ([]Reading, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	input := normalizeInput(word)
	readings := c.crunchToken(input, opts)
	if opts.Enclitics {
		if p, ok := splitProdelision(input); ok {
			readings = append(readings, c.crunchProdelision(p, opts)...)
		}
	}
	return dedupeReadings(readings), nil
}

// crunchToken analyzes one token made of letters only.
func (c *Cruncher) crunchToken(input string, opts CruncherOptions) []Reading {
	key := StripLengths(input)
	if key == "" || strings.IndexFunc(key, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
		return nil
	}

	spellings := append([]string{key}, spellingAlternates(key, opts.RelaxIAndJ, opts.RelaxUAndV)...)
	var readings []Reading
	for i, s := range spellings {
		found := c.crunchSpelling(s, opts)
		if i > 0 {
			// Report enclitics as the input spells them.
			for j := range found {
				if n := len([]rune(found[j].Enclitic)); n > 0 {
					found[j].Enclitic = lastRunes(key, n)
				}
			}
		}
		readings = append(readings, found...)
	}

	if opts.VowelLengthSensitive {
		want := foldLengthKey(input)
		readings = slices.DeleteFunc(readings, func(r Reading) bool {
			return foldLengthKey(r.Form+r.Enclitic) != want
		})
	}
	if opts.Greedy {
		readings = longestStems(readings)
	}
	return readings
}

// prodelision is a word written with a following est contracted onto it,
// as in puellast (puella est) or lupust (lupus est).
type prodelision struct {
	host     string
	attached string
}

// splitProdelision finds the host word of a prodelided est. A token ending
// in -ust keeps its s (lupust), any other -st token loses both letters
// (lupumst). An apostrophe marks the elided e explicitly (puella'st).
func splitProdelision(input string) (prodelision, bool) {
	input = prodelisionMarks.Replace(input)
	if host, rest, ok := strings.Cut(input, "'"); ok {
		return prodelision{host: host, attached: "e" + rest}, true
	}
	var host string
	switch {
	case strings.HasSuffix(input, "ust"):
		host = strings.TrimSuffix(input, "t")
	case strings.HasSuffix(input, "st"):
		host = strings.TrimSuffix(input, "st")
	default:
		return prodelision{}, false
	}
	if host == "" {
		return prodelision{}, false
	}
	return prodelision{host: host, attached: "est"}, true
}

// crunchProdelision analyzes the host of a prodelided word. The attached
// word must itself have an analysis; it is then reported on each host
// reading the way an enclitic is.
func (c *Cruncher) crunchProdelision(p prodelision, opts CruncherOptions) []Reading {
	attached := c.crunchToken(p.attached, opts)
	if len(attached) == 0 {
		return nil
	}
	if p.host == "" {
		return attached
	}
	readings := c.crunchToken(p.host, opts)
	out := readings[:0]
	for _, r := range readings {
		// A host that already carries an enclitic is not a word on its own.
		if r.Enclitic != "" {
			continue
		}
		r.Enclitic = p.attached
		out = append(out, r)
	}
	return out
}

// crunchSpelling analyzes one spelling, and its case-flipped variant when
// RelaxCase is set. An initial V is also read as the vowel U.
func (c *Cruncher) crunchSpelling(key string, opts CruncherOptions) []Reading {
	readings := c.crunchExact(key, opts)
	relaxed := func(variant string) {
		for _, r := range c.crunchExact(variant, opts) {
			r.RelaxedCase = true
			readings = append(readings, r)
		}
	}
	rest, initialV := strings.CutPrefix(key, "V")
	if initialV {
		relaxed("U" + rest)
	}
	if opts.RelaxCase {
		if flipped := toggleFirst(key); flipped != key {
			relaxed(flipped)
		}
		if initialV {
			relaxed("u" + rest)
		}
	}
	return readings
}

// crunchExact tries every split of key from the longest stem down.
func (c *Cruncher) crunchExact(key string, opts CruncherOptions) []Reading {
	rs := []rune(key)
	var readings []Reading
	for i := len(rs); i >= opts.MinStemLength; i-- {
		candidates, ok := c.tables.stems[string(rs[:i])]
		if !ok {
			continue
		}
		end := string(rs[i:])
		readings = append(readings, c.readingsForSplit(candidates, end, i, "")...)
		if !opts.Enclitics {
			continue
		}
		for _, enc := range enclitics {
			// -ue after q is the -que enclitic, not -ue.
			if enc == "ue" && strings.HasSuffix(end, "que") {
				continue
			}
			if partial, ok := strings.CutSuffix(end, enc); ok {
				readings = append(readings, c.readingsForSplit(candidates, partial, i, enc)...)
			}
		}
	}
	return readings
}

// readingsForSplit matches the candidates of one stem key against one
// observed ending.
func (c *Cruncher) readingsForSplit(candidates []stemEntry, end string, stemLen int, enclitic string) []Reading {
	observed := end
	if observed == "" {
		observed = emptyEnding
	}
	tableNames, found := c.tables.ends.Find(observed, len([]rune(observed)))

	var readings []Reading
	for _, cand := range candidates {
		if cand.form != nil {
			// Whole forms take no ending.
			if observed != emptyEnding {
				continue
			}
			readings = append(readings, Reading{
				Lemma:             cand.lemma,
				Form:              Macronize(cand.form.Form),
				Enclitic:          enclitic,
				IsVerb:            cand.isVerb,
				InflectionContext: cand.form.InflectionContext,
				stemLen:           stemLen,
			})
			continue
		}
		stem := cand.stem
		if !found || !slices.Contains(tableNames, stem.Inflection) {
			continue
		}
		for _, ending := range c.tables.lookup[stem.Inflection][observed] {
			merged, ok := mergeStemAndEnding(stem, ending)
			if !ok {
				continue
			}
			readings = append(readings, Reading{
				Lemma:             cand.lemma,
				Form:              Macronize(joinStem(stem.Stem, ending.Ending)),
				Table:             stem.Inflection,
				Enclitic:          enclitic,
				IsVerb:            cand.isVerb,
				InflectionContext: merged,
				stemLen:           stemLen,
			})
		}
	}
	return readings
}

// mergeStemAndEnding merges the constraints of a stem with the features of
// an ending, then applies the internal tags of both.
func mergeStemAndEnding(stem *Stem, ending InflectionEnding) (InflectionContext, bool) {
	merged, ok := MergeContexts(stem.InflectionContext, ending.InflectionContext)
	if !ok {
		return InflectionContext{}, false
	}
	if merged.HasInternalTag(TagCompoundOnly) {
		return InflectionContext{}, false
	}
	future := merged.Data.Tense == Future
	if future && merged.HasInternalTag(TagNoFuture) {
		return InflectionContext{}, false
	}
	if future && merged.Data.Mood == Participle && merged.HasInternalTag(TagNoFuturePart) {
		return InflectionContext{}, false
	}
	return merged, true
}

func joinStem(stem, ending string) string {
	if ending == emptyEnding {
		return stem
	}
	return stem + ending
}

// foldLengthKey reduces a form to what a vowel-length sensitive comparison
// looks at: letters and macrons, ignoring case and the i/j, u/v spellings.
func foldLengthKey(s string) string {
	s = strings.ToLower(lengthKey(s))
	return semivowelFolder.Replace(s)
}

var semivowelFolder = strings.NewReplacer("j", "i", "v", "u")

// lastRunes returns the last n runes of s.
func lastRunes(s string, n int) string {
	rs := []rune(s)
	if n >= len(rs) {
		return s
	}
	return string(rs[len(rs)-n:])
}

// longestStems keeps the readings whose stem is the longest of all readings.
func longestStems(readings []Reading) []Reading {
	longest := -1
	for _, r := range readings {
		longest = max(longest, r.stemLen)
	}
	return slices.DeleteFunc(readings, func(r Reading) bool {
		return r.stemLen != longest
	})
}

// dedupeReadings drops readings equal to an earlier one.
func dedupeReadings(readings []Reading) []Reading {
	out := readings[:0]
	for _, r := range readings {
		dup := slices.ContainsFunc(out, func(o Reading) bool {
			return o.Lemma == r.Lemma && o.Form == r.Form && o.Enclitic == r.Enclitic && o.InflectionContext.Equal(r.InflectionContext)
		})
		if !dup {
			out = append(out, r)
		}
	}
	return out
}
