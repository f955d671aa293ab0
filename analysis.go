package morceus

// Reading is one way of explaining a word: a lemma, the form it takes with
// quantity marks, and the grammatical features of that form.
type Reading struct {
	Lemma string `json:"lemma"`
	// Form is the analyzed form with Unicode vowel quantities, without any
	// enclitic.
	Form string `json:"form"`
	// Table is the paradigm table the ending came from; empty for whole forms.
	Table string `json:"table,omitempty"`
	// Enclitic is the enclitic split off the word, if any.
	Enclitic string `json:"enclitic,omitempty"`
	// RelaxedCase is set when the reading was found only after changing the
	// case of the first letter.
	RelaxedCase bool `json:"relaxedCase,omitempty"`
	IsVerb      bool `json:"isVerb,omitempty"`
	InflectionContext

	stemLen int
}

// InflectedForm groups the grammatical readings of one surface form.
type InflectedForm struct {
	Form           string              `json:"form"`
	Enclitic       string              `json:"enclitic,omitempty"`
	InflectionData []InflectionContext `json:"inflectionData"`
}

// LatinWordAnalysis is every reading of a word that belongs to one lemma.
type LatinWordAnalysis struct {
	Lemma          string          `json:"lemma"`
	InflectedForms []InflectedForm `json:"inflectedForms"`
}

// ResolutionKind tells apart the outcomes of an analysis.
type ResolutionKind int

const (
	// NoAnalysis means the word could not be decomposed.
	NoAnalysis ResolutionKind = iota
	// Unique means exactly one lemma, form and reading.
	Unique
	// Ambiguous means more than one reading survived.
	Ambiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Resolution is the tagged outcome of analyzing a word.
type Resolution struct {
	Kind     ResolutionKind      `json:"kind"`
	Analyses []LatinWordAnalysis `json:"analyses"`
}

// Unique returns the single analysis when the resolution is unique.
func (r Resolution) Unique() (LatinWordAnalysis, bool) {
	if r.Kind != Unique {
		return LatinWordAnalysis{}, false
	}
	return r.Analyses[0], true
}

func resolve(analyses []LatinWordAnalysis) Resolution {
	switch {
	case len(analyses) == 0:
		return Resolution{Kind: NoAnalysis}
	case len(analyses) == 1 &&
		len(analyses[0].InflectedForms) == 1 &&
		len(analyses[0].InflectedForms[0].InflectionData) == 1:
		return Resolution{Kind: Unique, Analyses: analyses}
	default:
		return Resolution{Kind: Ambiguous, Analyses: analyses}
	}
}

// groupReadings groups readings by lemma and then by form, in order of first
// appearance. Readings with equal context for the same form are kept once.
func groupReadings(readings []Reading) []LatinWordAnalysis {
	var out []LatinWordAnalysis
	lemmaIdx := make(map[string]int)
	for _, r := range readings {
		li, ok := lemmaIdx[r.Lemma]
		if !ok {
			li = len(out)
			lemmaIdx[r.Lemma] = li
			out = append(out, LatinWordAnalysis{Lemma: r.Lemma})
		}
		a := &out[li]
		fi := -1
		for i, f := range a.InflectedForms {
			if f.Form == r.Form && f.Enclitic == r.Enclitic {
				fi = i
				break
			}
		}
		if fi < 0 {
			fi = len(a.InflectedForms)
			a.InflectedForms = append(a.InflectedForms, InflectedForm{Form: r.Form, Enclitic: r.Enclitic})
		}
		f := &a.InflectedForms[fi]
		if !containsContext(f.InflectionData, r.InflectionContext) {
			f.InflectionData = append(f.InflectionData, r.InflectionContext)
		}
	}
	return out
}

func containsContext(list []InflectionContext, c InflectionContext) bool {
	for _, x := range list {
		if x.Equal(c) {
			return true
		}
	}
	return false
}
