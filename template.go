package dewiktionary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTemplate is returned by ParseDeclension for text without a
// "Deutsch Substantiv Übersicht" template.
var ErrNoTemplate = errors.New("no Deutsch Substantiv Übersicht template found")

// A TemplateError reports a template whose opening marker was found but
// whose fields (or closing braces) could not be read.
type TemplateError struct {
	// Field is the label that was expected, or "}}" for the closing
	// braces.
	Field string
	// Offset is the byte offset into the page text where it was
	// expected.
	Offset int
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("malformed Deutsch Substantiv Übersicht template: expected %q at byte %d",
		e.Field, e.Offset)
}

// The opening marker, one word after the other with optional
// whitespace in between: {{Deutsch Substantiv Übersicht
var markerWords = []string{"Deutsch", "Substantiv", "Übersicht"}

type declensionField struct {
	label []string
	set   func(d *Declension, v string)
}

// declensionFields are the fields of the template in the only order
// they're accepted in.
var declensionFields = []declensionField{
	{[]string{"Genus"}, func(d *Declension, v string) { d.Genus = v }},
	{[]string{"Nominativ", "Singular"}, func(d *Declension, v string) { d.NominativeSingular = v }},
	{[]string{"Nominativ", "Plural"}, func(d *Declension, v string) { d.NominativePlural = v }},
	{[]string{"Genitiv", "Singular"}, func(d *Declension, v string) { d.GenitiveSingular = v }},
	{[]string{"Genitiv", "Plural"}, func(d *Declension, v string) { d.GenitivePlural = v }},
	{[]string{"Dativ", "Singular"}, func(d *Declension, v string) { d.DativeSingular = v }},
	{[]string{"Dativ", "Plural"}, func(d *Declension, v string) { d.DativePlural = v }},
	{[]string{"Akkusativ", "Singular"}, func(d *Declension, v string) { d.AccusativeSingular = v }},
	{[]string{"Akkusativ", "Plural"}, func(d *Declension, v string) { d.AccusativePlural = v }},
}

func (f declensionField) String() string {
	return strings.Join(f.label, " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Values are runs of ASCII letters only. Umlauts and ß end a value, and
// since the next field can't start there the whole table is dropped.
func isValueLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

// words matches each of the given words in turn, allowing optional
// whitespace between (but not before) them.
func words(s string, ws []string) (string, bool) {
	for i, w := range ws {
		if i > 0 {
			s = skipSpace(s)
		}
		if !strings.HasPrefix(s, w) {
			return s, false
		}
		s = s[len(w):]
	}
	return s, true
}

// matchMarker matches the opening marker at the very start of s.
func matchMarker(s string) (string, bool) {
	if !strings.HasPrefix(s, "{{") {
		return s, false
	}
	return words(skipSpace(s[2:]), markerWords)
}

// findMarker gets the text following the first opening marker in s.
//
// On a failed attempt the scan moves on by a single character; jumping
// straight to the next "{{" is equivalent since that's the only place a
// marker can start.
func findMarker(s string) (string, bool) {
	pos := 0
	for {
		i := strings.Index(s[pos:], "{{")
		if i < 0 {
			return "", false
		}
		pos += i
		if rest, ok := matchMarker(s[pos:]); ok {
			return rest, true
		}
		pos++
	}
}

// parseField reads `|Label=value` preceded by optional whitespace.
func parseField(s string, f declensionField) (value, rest string, ok bool) {
	s = skipSpace(s)
	if !strings.HasPrefix(s, "|") {
		return "", s, false
	}
	s, ok = words(s[1:], f.label)
	if !ok || !strings.HasPrefix(s, "=") {
		return "", s, false
	}
	s = s[1:]

	n := 0
	for n < len(s) && isValueLetter(s[n]) {
		n++
	}
	if n == 0 {
		return "", s, false
	}
	return s[:n], s[n:], true
}

// parseFields reads all nine fields from the start of s.
//
// It returns the label of the first field that couldn't be read along
// with the text it was expected at.
func parseFields(s string) (Declension, string, *declensionField) {
	var d Declension
	for i := range declensionFields {
		f := &declensionFields[i]
		v, rest, ok := parseField(s, *f)
		if !ok {
			return Declension{}, s, f
		}
		f.set(&d, v)
		s = rest
	}
	return d, s, nil
}

func scan(text string) (Declension, string, error) {
	s, ok := findMarker(text)
	if !ok {
		return Declension{}, "", ErrNoTemplate
	}

	d, s, failed := parseFields(s)
	if failed != nil {
		return Declension{}, "", &TemplateError{
			Field:  failed.String(),
			Offset: len(text) - len(skipSpace(s)),
		}
	}

	s = skipSpace(s)
	if !strings.HasPrefix(s, "}}") {
		return Declension{}, "", &TemplateError{
			Field:  "}}",
			Offset: len(text) - len(s),
		}
	}
	return d, s[2:], nil
}

// ScanDeclension finds the first "Deutsch Substantiv Übersicht"
// template in text and reads its declension table.
//
// On success the text following the template's closing braces is
// returned along with the table. Only the first template is ever
// tried: if it's malformed the text yields nothing, even if a good
// template follows.
func ScanDeclension(text string) (Declension, string, bool) {
	d, rest, err := scan(text)
	return d, rest, err == nil
}

// ParseDeclension is like ScanDeclension, but reports why nothing was
// found: ErrNoTemplate when there's no template at all, or a
// *TemplateError when the template is malformed.
func ParseDeclension(text string) (Declension, error) {
	d, _, err := scan(text)
	return d, err
}
