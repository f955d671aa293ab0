package morceus

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Case is the grammatical case axis. The zero value means unset.
type Case uint8

const (
	CaseUnset Case = iota
	Nominative
	Accusative
	Dative
	Genitive
	Ablative
	Vocative
	Locative
)

// Number is the grammatical number axis.
type Number uint8

const (
	NumberUnset Number = iota
	Singular
	Plural
)

// Gender is the grammatical gender axis.
type Gender uint8

const (
	GenderUnset Gender = iota
	Masculine
	Feminine
	Neuter
	Adverbial
)

// Person is the verbal person axis.
type Person uint8

const (
	PersonUnset Person = iota
	First
	Second
	Third
)

// Voice is the verbal voice axis.
type Voice uint8

const (
	VoiceUnset Voice = iota
	Active
	Passive
)

// Mood is the verbal mood axis. Non-finite forms are folded in as moods.
type Mood uint8

const (
	MoodUnset Mood = iota
	Indicative
	Imperative
	Subjunctive
	Participle
	Gerundive
	Infinitive
	Supine
)

// Tense is the verbal tense axis.
type Tense uint8

const (
	TenseUnset Tense = iota
	Present
	Imperfect
	Perfect
	FuturePerfect
	Future
	Pluperfect
)

// Degree is the adjectival degree axis.
type Degree uint8

const (
	DegreeUnset Degree = iota
	Positive
	Comparative
	Superlative
)

// Internal tags with a meaning for the cruncher.
const (
	// TagCompoundOnly marks endings only valid inside compounds.
	TagCompoundOnly = "comp_only"
	// TagNoFuture marks stems without future forms.
	TagNoFuture = "no_fut"
	// TagNoFuturePart marks stems without a future participle.
	TagNoFuturePart = "no_fut_part"
)

var internalTags = map[string]bool{
	TagCompoundOnly: true,
	TagNoFuture:     true,
	TagNoFuturePart: true,
}

type axis int

const (
	axisCase axis = iota
	axisNumber
	axisGender
	axisPerson
	axisVoice
	axisMood
	axisTense
	axisDegree
	numAxes
)

var axisNames = [numAxes]string{"case", "number", "gender", "person", "voice", "mood", "tense", "degree"}

// axisTokens lists the text token for every value of every axis, indexed by value.
// Index 0 is the unset value and has no token.
var axisTokens = [numAxes][]string{
	axisCase:   {"", "nom", "acc", "dat", "gen", "abl", "voc", "loc"},
	axisNumber: {"", "sg", "pl"},
	axisGender: {"", "masc", "fem", "neut", "adverbial"},
	axisPerson: {"", "1st", "2nd", "3rd"},
	axisVoice:  {"", "act", "pass"},
	axisMood:   {"", "ind", "imperat", "subj", "part", "gerundive", "inf", "supine"},
	axisTense:  {"", "pres", "imperf", "perf", "futperf", "fut", "plupf"},
	axisDegree: {"", "pos", "comp", "superl"},
}

type axisValue struct {
	axis  axis
	value uint8
}

// tokenValues maps each grammatical token to its axis and value.
var tokenValues = func() map[string]axisValue {
	m := make(map[string]axisValue)
	for a, tokens := range axisTokens {
		for v, tok := range tokens {
			if tok != "" {
				m[tok] = axisValue{axis(a), uint8(v)}
			}
		}
	}
	return m
}()

// GrammaticalData is a partial assignment of grammatical features.
// Each axis holds at most one value; the zero value of an axis means
// "unconstrained".
type GrammaticalData struct {
	Case   Case
	Number Number
	Gender Gender
	Person Person
	Voice  Voice
	Mood   Mood
	Tense  Tense
	Degree Degree
}

func (d *GrammaticalData) get(a axis) uint8 {
	switch a {
	case axisCase:
		return uint8(d.Case)
	case axisNumber:
		return uint8(d.Number)
	case axisGender:
		return uint8(d.Gender)
	case axisPerson:
		return uint8(d.Person)
	case axisVoice:
		return uint8(d.Voice)
	case axisMood:
		return uint8(d.Mood)
	case axisTense:
		return uint8(d.Tense)
	case axisDegree:
		return uint8(d.Degree)
	}
	return 0
}

func (d *GrammaticalData) set(a axis, v uint8) {
	switch a {
	case axisCase:
		d.Case = Case(v)
	case axisNumber:
		d.Number = Number(v)
	case axisGender:
		d.Gender = Gender(v)
	case axisPerson:
		d.Person = Person(v)
	case axisVoice:
		d.Voice = Voice(v)
	case axisMood:
		d.Mood = Mood(v)
	case axisTense:
		d.Tense = Tense(v)
	case axisDegree:
		d.Degree = Degree(v)
	}
}

// IsEmpty reports whether no axis is set.
func (d GrammaticalData) IsEmpty() bool {
	return d == GrammaticalData{}
}

// Merge combines two assignments. It fails when an axis is set on both
// sides to different values.
func (d GrammaticalData) Merge(o GrammaticalData) (GrammaticalData, bool) {
	merged := d
	for a := axis(0); a < numAxes; a++ {
		ov := o.get(a)
		if ov == 0 {
			continue
		}
		dv := d.get(a)
		if dv != 0 && dv != ov {
			return GrammaticalData{}, false
		}
		merged.set(a, ov)
	}
	return merged, true
}

// Tokens renders the assigned axes as text tokens in axis order.
func (d GrammaticalData) Tokens() []string {
	var out []string
	for a := axis(0); a < numAxes; a++ {
		if v := d.get(a); v != 0 {
			out = append(out, axisTokens[a][v])
		}
	}
	return out
}

func (d GrammaticalData) String() string {
	return strings.Join(d.Tokens(), " ")
}

// MarshalText implements encoding.TextMarshaler.
func (d GrammaticalData) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *GrammaticalData) UnmarshalText(b []byte) error {
	text := string(b)
	var parsed GrammaticalData
	for _, tok := range strings.Fields(text) {
		av, ok := tokenValues[tok]
		if !ok {
			return fmt.Errorf("%w: unknown grammatical token %q", ErrMalformedContext, tok)
		}
		if cur := parsed.get(av.axis); cur != 0 && cur != av.value {
			return fmt.Errorf("%w: %s given twice in %q", ErrMalformedContext, axisNames[av.axis], text)
		}
		parsed.set(av.axis, av.value)
	}
	*d = parsed
	return nil
}

// InflectionContext is a partial grammatical feature record together with
// display tags and disambiguation-only internal tags.
type InflectionContext struct {
	Data         GrammaticalData `json:"grammaticalData"`
	Tags         []string        `json:"tags,omitempty"`
	InternalTags []string        `json:"internalTags,omitempty"`
}

// ErrMalformedContext is returned when grammatical tokens cannot be parsed.
var ErrMalformedContext = errors.New("malformed inflection context")

// MergeContexts merges two contexts. The boolean is false when the two
// contexts assign different values to the same axis; that is an expected
// outcome, not an error. Tags are merged as set unions.
func MergeContexts(a, b InflectionContext) (InflectionContext, bool) {
	data, ok := a.Data.Merge(b.Data)
	if !ok {
		return InflectionContext{}, false
	}
	return InflectionContext{
		Data:         data,
		Tags:         unionTags(a.Tags, b.Tags),
		InternalTags: unionTags(a.InternalTags, b.InternalTags),
	}, true
}

// HasInternalTag reports whether tag is among the internal tags.
func (c InflectionContext) HasInternalTag(tag string) bool {
	return slices.Contains(c.InternalTags, tag)
}

// Equal reports whether both contexts carry the same data and tag sets.
func (c InflectionContext) Equal(o InflectionContext) bool {
	return c.Data == o.Data && sameSet(c.Tags, o.Tags) && sameSet(c.InternalTags, o.InternalTags)
}

// Tokens renders the context as text tokens: grammatical data, then tags,
// then internal tags.
func (c InflectionContext) Tokens() []string {
	out := c.Data.Tokens()
	out = append(out, c.Tags...)
	return append(out, c.InternalTags...)
}

func (c InflectionContext) String() string {
	return strings.Join(c.Tokens(), " ")
}

// ParseContexts parses grammatical tokens into contexts. A token of the form
// "a/b" is a disjunction and yields one context per alternative. Tokens that
// are not grammatical become tags, or internal tags when they are known
// internal markers.
func ParseContexts(tokens []string) ([]InflectionContext, error) {
	contexts := []InflectionContext{{}}
	var tags, internal []string
	for _, tok := range tokens {
		alternatives := strings.Split(tok, "/")
		if len(alternatives) == 1 {
			av, ok := tokenValues[tok]
			if !ok {
				if internalTags[tok] {
					internal = appendUnique(internal, tok)
				} else {
					tags = appendUnique(tags, tok)
				}
				continue
			}
			for i := range contexts {
				if cur := contexts[i].Data.get(av.axis); cur != 0 && cur != av.value {
					return nil, fmt.Errorf("%w: %s given twice in %q", ErrMalformedContext, axisNames[av.axis], strings.Join(tokens, " "))
				}
				contexts[i].Data.set(av.axis, av.value)
			}
			continue
		}
		next := make([]InflectionContext, 0, len(contexts)*len(alternatives))
		for _, alt := range alternatives {
			av, ok := tokenValues[alt]
			if !ok {
				return nil, fmt.Errorf("%w: unknown alternative %q in %q", ErrMalformedContext, alt, tok)
			}
			for _, c := range contexts {
				if cur := c.Data.get(av.axis); cur != 0 && cur != av.value {
					return nil, fmt.Errorf("%w: %s given twice in %q", ErrMalformedContext, axisNames[av.axis], strings.Join(tokens, " "))
				}
				c.Data.set(av.axis, av.value)
				next = append(next, c)
			}
		}
		contexts = next
	}
	for i := range contexts {
		contexts[i].Tags = slices.Clip(tags)
		contexts[i].InternalTags = slices.Clip(internal)
	}
	return contexts, nil
}

// unionTags returns the ordered union of a and b. When one side is empty the
// other is returned clipped, so appends by callers never alias shared data.
func unionTags(a, b []string) []string {
	if len(b) == 0 {
		return slices.Clip(a)
	}
	if len(a) == 0 {
		return slices.Clip(b)
	}
	out := slices.Clone(a)
	for _, t := range b {
		out = appendUnique(out, t)
	}
	return slices.Clip(out)
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}
