package morceus

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Quantity marks used in table data: a vowel followed by '_' is long and a
// vowel followed by '^' is short. '-' separates morphemes and carries no sound.
const (
	longMark  = '_'
	shortMark = '^'
	joinMark  = '-'
)

const (
	combiningMacron = '\u0304'
	combiningBreve  = '\u0306'
)

// asciiMarkRemover drops quantity and morpheme marks from table data.
var asciiMarkRemover = strings.NewReplacer("_", "", "^", "", "-", "")

// StripLengths removes every vowel-quantity mark from s: table marks
// ('_', '^', '-') as well as precomposed or combining macrons and breves.
// The result is the key used for stem and ending lookups.
func StripLengths(s string) string {
	s = asciiMarkRemover.Replace(s)
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Macronize renders table data with Unicode vowel quantities: a vowel
// followed by '_' gets a macron, one followed by '^' a breve. Morpheme
// separators are dropped.
func Macronize(s string) string {
	if !strings.ContainsAny(s, "_^-") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case longMark:
			b.WriteRune(combiningMacron)
		case shortMark:
			b.WriteRune(combiningBreve)
		case joinMark:
		default:
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(b.String())
}

// lengthKey reduces s to a form where only long vowels are marked. Breves
// are optional in running text and never distinguish two readings.
func lengthKey(s string) string {
	s = Macronize(s)
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.Is(unicode.Mn, r) && r != combiningMacron
	})), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeInput prepares a raw token for lookup. Precomposed characters are
// composed, and everything but the first letter is lowercased. The first
// letter keeps its case so capitalized stems can be told apart.
func normalizeInput(word string) string {
	word = norm.NFC.String(strings.TrimSpace(word))
	rs := []rune(word)
	for i := 1; i < len(rs); i++ {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}

// toggleFirst flips the case of the first letter of s.
func toggleFirst(s string) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	if unicode.IsUpper(rs[0]) {
		rs[0] = unicode.ToLower(rs[0])
	} else {
		rs[0] = unicode.ToUpper(rs[0])
	}
	return string(rs)
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// maxAmbiguousLetters bounds the number of positions tried by
// spellingAlternates; every position doubles the number of alternates.
const maxAmbiguousLetters = 6

// spellingAlternates returns the spellings of s obtained by swapping the
// consonantal and vocalic writings of i/j and u/v. Only letters next to a
// vowel are ambiguous, and u after q is always vocalic. s itself is not
// included. A word already written with j (or v) is taken to distinguish the
// two and gets no alternates for that pair.
func spellingAlternates(s string, relaxIJ, relaxUV bool) []string {
	lower := strings.ToLower(s)
	if strings.ContainsRune(lower, 'j') {
		relaxIJ = false
	}
	if strings.ContainsRune(s, 'v') {
		relaxUV = false
	}
	if !relaxIJ && !relaxUV {
		return nil
	}
	rs := []rune(s)
	var positions []int
	for i, r := range rs {
		lr := unicode.ToLower(r)
		if !(relaxIJ && lr == 'i') && !(relaxUV && (lr == 'u' || lr == 'v')) {
			continue
		}
		if lr == 'u' && i > 0 && unicode.ToLower(rs[i-1]) == 'q' {
			continue
		}
		before := i > 0 && isVowel(rs[i-1])
		after := i < len(rs)-1 && isVowel(rs[i+1])
		if !before && !after {
			continue
		}
		positions = append(positions, i)
		if len(positions) == maxAmbiguousLetters {
			break
		}
	}
	var out []string
	for mask := 1; mask < 1<<len(positions); mask++ {
		alt := make([]rune, len(rs))
		copy(alt, rs)
		for bit, pos := range positions {
			if mask&(1<<bit) != 0 {
				alt[pos] = swapSemivowel(alt[pos])
			}
		}
		out = append(out, string(alt))
	}
	return out
}

func swapSemivowel(r rune) rune {
	switch r {
	case 'i':
		return 'j'
	case 'I':
		return 'J'
	case 'u':
		return 'v'
	case 'U':
		return 'V'
	case 'v':
		return 'u'
	case 'V':
		return 'U'
	}
	return r
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
