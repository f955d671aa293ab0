package morceus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// templateExt is the file extension of template files.
const templateExt = ".end"

// LoadTemplate reads a template file. The template is named after the file.
func LoadTemplate(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := ParseTemplate(name, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTemplate reads a template from r.
//
// Each non-blank line that does not start with '#' is either a cell,
//
//	ending token...
//
// where at least one token is grammatical, or a dependency,
//
//	prefix@name [token...]
//
// which includes the expanded table name with every ending prefixed by
// prefix ("*" or nothing for none) under the context given by the tokens.
func ParseTemplate(name string, r io.Reader) (*Template, error) {
	t := &Template{Name: name}
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		first := parts[0]

		if strings.Contains(first, "@") {
			prefix, dep, _ := strings.Cut(first, "@")
			if dep == "" || strings.Contains(dep, "@") {
				return nil, fmt.Errorf("%w: %s line %d: bad dependency %q", ErrMalformedTemplate, name, lineNum, first)
			}
			var contexts []InflectionContext
			if len(parts) > 1 {
				var err error
				contexts, err = ParseContexts(parts[1:])
				if err != nil {
					return nil, fmt.Errorf("%w: %s line %d: %w", ErrMalformedTemplate, name, lineNum, err)
				}
			}
			if prefix == emptyEnding {
				prefix = ""
			}
			t.Deps = append(t.Deps, TemplateDependency{Name: dep, Prefix: prefix, Contexts: contexts})
			continue
		}

		contexts, err := ParseContexts(parts[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrMalformedTemplate, name, lineNum, err)
		}
		for _, ctx := range contexts {
			if ctx.Data.IsEmpty() {
				return nil, fmt.Errorf("%w: %s line %d: ending %q has no grammatical data", ErrMalformedTemplate, name, lineNum, first)
			}
			t.Cells = append(t.Cells, InflectionEnding{Ending: first, InflectionContext: ctx})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.Cells) == 0 && len(t.Deps) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedTemplate, name)
	}
	return t, nil
}

// LoadTemplateDirs reads every template file in dirs, in name order.
func LoadTemplateDirs(dirs ...string) ([]*Template, error) {
	var templates []*Template
	for _, dir := range dirs {
		paths, err := filepath.Glob(filepath.Join(dir, "*"+templateExt))
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: no %s files in %s", ErrMalformedTemplate, templateExt, dir)
		}
		sort.Strings(paths)
		for _, path := range paths {
			t, err := LoadTemplate(path)
			if err != nil {
				return nil, err
			}
			templates = append(templates, t)
		}
	}
	return templates, nil
}

// WriteTable writes an expanded table, one ending per line:
//
//	ending table token...
func WriteTable(w io.Writer, table *InflectionTable) error {
	bw := bufio.NewWriter(w)
	for _, end := range table.Endings {
		fields := append([]string{end.Ending, table.Name}, end.Tokens()...)
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadStemFiles reads and concatenates the lemmata of every stem file.
func LoadStemFiles(paths ...string) ([]Lemma, error) {
	var lemmata []Lemma
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open stem file: %w", err)
		}
		ls, err := ParseStems(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		lemmata = append(lemmata, ls...)
	}
	return lemmata, nil
}

// ParseStems reads stem data. A lemma starts with a ":le:" line and is
// followed by lines of the form
//
//	:no:stem table [token...]   noun stem (also :aj: and :vb:)
//	:wd:form [token...]         indeclinable word
//	:if:form token...           irregular whole form
//
// Blank lines and lines starting with '#' are ignored.
func ParseStems(r io.Reader) ([]Lemma, error) {
	var (
		lemmata []Lemma
		current *Lemma
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if len(current.Stems) == 0 && len(current.IrregularForms) == 0 {
			return fmt.Errorf("%w: lemma %s has no stems", ErrMalformedStem, current.Lemma)
		}
		lemmata = append(lemmata, *current)
		current = nil
		return nil
	}

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) < 5 || line[0] != ':' || line[3] != ':' {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedStem, lineNum, line)
		}
		code := StemCode(line[1:3])
		fields := strings.Fields(line[4:])

		if code == "le" {
			if err := flush(); err != nil {
				return nil, err
			}
			if len(fields) != 1 {
				return nil, fmt.Errorf("%w: line %d: bad lemma %q", ErrMalformedStem, lineNum, line)
			}
			current = &Lemma{Lemma: fields[0]}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: line %d: stem outside of a lemma", ErrMalformedStem, lineNum)
		}
		if err := current.addLine(code, fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedStem, lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return lemmata, nil
}

func (l *Lemma) addLine(code StemCode, fields []string) error {
	switch code {
	case CodeNoun, CodeAdjective, CodeVerb:
		if len(fields) < 2 {
			return fmt.Errorf("stem line needs a stem and a table")
		}
		contexts, err := ParseContexts(fields[2:])
		if err != nil {
			return err
		}
		for _, ctx := range contexts {
			l.Stems = append(l.Stems, Stem{Code: code, Stem: fields[0], Inflection: fields[1], InflectionContext: ctx})
		}
		if code == CodeVerb {
			l.IsVerb = true
		}
	case CodeIndeclinable, CodeIrregular:
		if len(fields) < 1 {
			return fmt.Errorf("form line needs a form")
		}
		contexts, err := ParseContexts(fields[1:])
		if err != nil {
			return err
		}
		for _, ctx := range contexts {
			if code == CodeIrregular && ctx.Data.IsEmpty() {
				return fmt.Errorf("irregular form %s has no grammatical data", fields[0])
			}
			l.IrregularForms = append(l.IrregularForms, IrregularForm{Code: code, Form: fields[0], InflectionContext: ctx})
		}
	default:
		return fmt.Errorf("unknown stem code %q", code)
	}
	return nil
}
