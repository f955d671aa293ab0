package morceus

import "errors"

// StemCode is the part-of-speech code of a stem line.
type StemCode string

const (
	CodeNoun         StemCode = "no"
	CodeAdjective    StemCode = "aj"
	CodeVerb         StemCode = "vb"
	CodeIndeclinable StemCode = "wd"
	CodeIrregular    StemCode = "if"
)

// Stem is an inflected stem of a lemma. Inflection names the paradigm table
// its endings come from; the embedded context holds constraints fixed by the
// stem, such as the gender of a noun.
type Stem struct {
	Code       StemCode `json:"code"`
	Stem       string   `json:"stem"`
	Inflection string   `json:"inflection"`
	InflectionContext
}

// IrregularForm is a complete word form that takes no ending: an
// indeclinable word or an irregular form listed as a whole.
type IrregularForm struct {
	Code StemCode `json:"code"`
	Form string   `json:"form"`
	InflectionContext
}

// Lemma is a dictionary headword with the stems and whole forms that
// realize it.
type Lemma struct {
	Lemma          string          `json:"lemma"`
	Stems          []Stem          `json:"stems,omitempty"`
	IrregularForms []IrregularForm `json:"irregularForms,omitempty"`
	IsVerb         bool            `json:"isVerb,omitempty"`
}

// ErrMalformedStem is returned when stem data violates the expected shape.
var ErrMalformedStem = errors.New("malformed stem data")

// stemEntry is one candidate behind a stem key. Exactly one of stem and form
// is set.
type stemEntry struct {
	lemma  string
	isVerb bool
	stem   *Stem
	form   *IrregularForm
}

// StemMap maps a stem key (the stem without quantity marks) to every stem or
// whole form spelled that way.
type StemMap map[string][]stemEntry

// MakeStemMap indexes the stems and whole forms of lemmata.
func MakeStemMap(lemmata []Lemma) StemMap {
	m := make(StemMap)
	for i := range lemmata {
		l := &lemmata[i]
		for j := range l.Stems {
			s := &l.Stems[j]
			key := StripLengths(s.Stem)
			m[key] = append(m[key], stemEntry{lemma: l.Lemma, isVerb: l.IsVerb, stem: s})
		}
		for j := range l.IrregularForms {
			f := &l.IrregularForms[j]
			key := StripLengths(f.Form)
			m[key] = append(m[key], stemEntry{lemma: l.Lemma, isVerb: l.IsVerb, form: f})
		}
	}
	return m
}
