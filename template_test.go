package dewiktionary

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const katze = "{{Deutsch Substantiv Übersicht\n" +
	"|Genus=f\n" +
	"|Nominativ Singular=Katze\n" +
	"|Nominativ Plural=Katzen\n" +
	"|Genitiv Singular=Katze\n" +
	"|Genitiv Plural=Katzen\n" +
	"|Dativ Singular=Katze\n" +
	"|Dativ Plural=Katzen\n" +
	"|Akkusativ Singular=Katze\n" +
	"|Akkusativ Plural=Katzen\n" +
	"}}"

var katzeTable = Declension{
	Genus:              "f",
	NominativeSingular: "Katze",
	NominativePlural:   "Katzen",
	GenitiveSingular:   "Katze",
	GenitivePlural:     "Katzen",
	DativeSingular:     "Katze",
	DativePlural:       "Katzen",
	AccusativeSingular: "Katze",
	AccusativePlural:   "Katzen",
}

const tablette = `   {{Deutsch Substantiv Übersicht
            |Genus=f
            |Nominativ Singular=Kopfschmerztablette
            |Nominativ Plural=Kopfschmerztabletten
            |Genitiv Singular=Kopfschmerztablette
            |Genitiv Plural=Kopfschmerztabletten
            |Dativ Singular=Kopfschmerztablette
            |Dativ Plural=Kopfschmerztabletten
            |Akkusativ Singular=Kopfschmerztablette
            |Akkusativ Plural=Kopfschmerztabletten
            }}`

var tabletteTable = Declension{
	Genus:              "f",
	NominativeSingular: "Kopfschmerztablette",
	NominativePlural:   "Kopfschmerztabletten",
	GenitiveSingular:   "Kopfschmerztablette",
	GenitivePlural:     "Kopfschmerztabletten",
	DativeSingular:     "Kopfschmerztablette",
	DativePlural:       "Kopfschmerztabletten",
	AccusativeSingular: "Kopfschmerztablette",
	AccusativePlural:   "Kopfschmerztabletten",
}

func TestScanDeclensionKatze(t *testing.T) {
	d, rest, ok := ScanDeclension("Vorwort " + katze)
	require.True(t, ok)
	assert.Equal(t, katzeTable, d)
	assert.Equal(t, "", rest)
}

func TestScanDeclensionSurroundings(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bare", katze},
		{"indented", tablette},
		{"leading garbage", "abcde ds fdjfdsl flkdsj  " + katze},
		{"trailing garbage", katze + "\n\n{{Worttrennung}}\n:Kat·ze, {{Pl.}} Kat·zen"},
		{"section headings", "== Katze ({{Sprache|Deutsch}}) ==\n=== {{Wortart|Substantiv|Deutsch}}, {{f}} ===\n\n" + katze},
		{"other templates first", "{{Siehe auch|[[katze]]}} {{Deutsch Substantiv Singular}} " + katze},
		{"triple brace", "{" + katze},
		{"spaced marker", strings.Replace(katze, "{{Deutsch Substantiv Übersicht",
			"{{ \n Deutsch\tSubstantiv  Übersicht", 1)},
		{"no newlines", strings.ReplaceAll(katze, "\n", "")},
		{"crlf", strings.ReplaceAll(katze, "\n", "\r\n")},
		{"whitespace before closing", strings.Replace(katze, "\n}}", " \t\n \n}}", 1)},
		{"spaced label words", strings.Replace(katze, "Dativ Plural", "Dativ \t Plural", 1)},
		{"joined label words", strings.Replace(katze, "Dativ Plural", "DativPlural", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := katzeTable
			if tt.name == "indented" {
				want = tabletteTable
			}
			d, _, ok := ScanDeclension(tt.text)
			require.True(t, ok)
			assert.Equal(t, want, d)
		})
	}
}

func TestScanDeclensionNoRecord(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no marker", "== Katze ==\n{{Wortart|Substantiv|Deutsch}}\n|Genus=f"},
		{"fields without marker", strings.TrimPrefix(katze, "{{Deutsch Substantiv Übersicht")},
		{"unterminated marker", "{{Deutsch Substantiv Über"},
		{"lowercase marker", strings.Replace(katze, "Deutsch", "deutsch", 1)},
		{"swapped fields", strings.Replace(strings.Replace(katze,
			"|Genitiv Singular=Katze", "|X=", 1),
			"|Genitiv Plural=Katzen", "|Genitiv Singular=Katze", 1)},
		{"nominativ plural before singular", strings.Replace(katze,
			"|Nominativ Singular=Katze\n|Nominativ Plural=Katzen",
			"|Nominativ Plural=Katzen\n|Nominativ Singular=Katze", 1)},
		{"misspelled label", strings.Replace(katze, "Akkusativ Singular", "Akusativ Singular", 1)},
		{"lowercase label", strings.Replace(katze, "Genus", "genus", 1)},
		{"missing genitiv", strings.Replace(katze,
			"|Genitiv Singular=Katze\n|Genitiv Plural=Katzen\n", "", 1)},
		{"extra field", strings.Replace(katze, "|Genitiv Singular", "|Bild=Katze\n|Genitiv Singular", 1)},
		{"empty value", strings.Replace(katze, "|Dativ Plural=Katzen", "|Dativ Plural=", 1)},
		{"space before equals", strings.Replace(katze, "|Genus=f", "|Genus =f", 1)},
		{"space after equals", strings.Replace(katze, "|Genus=f", "|Genus= f", 1)},
		{"space after pipe", strings.Replace(katze, "|Genus=f", "| Genus=f", 1)},
		{"missing closing", strings.TrimSuffix(katze, "}}")},
		{"trailing field", strings.Replace(katze, "\n}}", "\n|Bild=Katze.jpg\n}}", 1)},
		{"truncated", katze[:len(katze)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rest, ok := ScanDeclension(tt.text)
			assert.False(t, ok)
			assert.Equal(t, Declension{}, d)
			assert.Equal(t, "", rest)
		})
	}
}

// Values are ASCII letters only, so nouns with umlauts or ß never
// produce a table.
func TestScanDeclensionASCIIOnly(t *testing.T) {
	tests := []string{
		strings.ReplaceAll(katze, "Katze", "Kopfnüsse"),
		strings.ReplaceAll(katze, "Katzen", "Straßen"),
		strings.ReplaceAll(katze, "Katzen", "E-Mails"),
		strings.Replace(katze, "|Nominativ Singular=Katze", "|Nominativ Singular=schwarze Katze", 1),
		strings.Replace(katze, "|Genitiv Plural=Katzen", "|Genitiv Plural=[[Katzen]]", 1),
	}
	for _, text := range tests {
		_, _, ok := ScanDeclension(text)
		assert.False(t, ok, "%q", text)
	}
}

func TestScanDeclensionFirstOnly(t *testing.T) {
	hund := strings.NewReplacer("Genus=f", "Genus=m", "Katzen", "Hunde", "Katze", "Hund").Replace(katze)

	d, rest, ok := ScanDeclension(katze + "\n" + hund)
	require.True(t, ok)
	assert.Equal(t, katzeTable, d)
	assert.Equal(t, "\n"+hund, rest)

	// A malformed first template hides a good second one.
	broken := strings.Replace(katze, "|Genus=f", "|Genus=", 1)
	_, _, ok = ScanDeclension(broken + hund)
	assert.False(t, ok)
}

func TestScanDeclensionRemainder(t *testing.T) {
	text := "Vorwort " + katze + " Nachwort {{Deutsch Substantiv Übersicht"
	d, rest, ok := ScanDeclension(text)
	require.True(t, ok)
	assert.Equal(t, katzeTable, d)
	assert.Equal(t, " Nachwort {{Deutsch Substantiv Übersicht", rest)

	// The consumed template isn't found again in what's left.
	_, _, ok = ScanDeclension(rest)
	assert.False(t, ok)
}

func TestScanDeclensionOtherGenus(t *testing.T) {
	text := strings.Replace(katze, "|Genus=f", "|Genus=x", 1)
	d, _, ok := ScanDeclension(text)
	require.True(t, ok)
	assert.Equal(t, "x", d.Genus)
	assert.Equal(t, "", d.Article())
}

func TestScanDeclensionLongPage(t *testing.T) {
	text := strings.Repeat("{{Deutsch Substantiv ", 100000) + katze
	d, _, ok := ScanDeclension(text)
	require.True(t, ok)
	assert.Equal(t, katzeTable, d)

	_, _, ok = ScanDeclension(strings.Repeat("{", 1<<20))
	assert.False(t, ok)
}

func TestParseDeclensionErrors(t *testing.T) {
	_, err := ParseDeclension("nothing to see here")
	assert.ErrorIs(t, err, ErrNoTemplate)

	text := "Vorwort " + strings.Replace(katze, "|Genitiv Plural=", "|Genitiv  Plurale=", 1)
	_, err = ParseDeclension(text)
	var te *TemplateError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "Genitiv Plural", te.Field)
	assert.Equal(t, strings.Index(text, "|Genitiv  Plurale"), te.Offset)
	assert.Contains(t, te.Error(), "Genitiv Plural")

	text = strings.TrimSuffix(katze, "}}") + "\n|"
	_, err = ParseDeclension(text)
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "}}", te.Field)
	assert.Equal(t, len(text)-1, te.Offset)

	d, err := ParseDeclension(katze)
	require.NoError(t, err)
	assert.Equal(t, katzeTable, d)
}

func TestDeclensionArticle(t *testing.T) {
	for genus, article := range map[string]string{"m": "der", "f": "die", "n": "das", "": "", "mf": ""} {
		assert.Equal(t, article, Declension{Genus: genus}.Article(), "genus %q", genus)
	}
}

func TestDeclensionValues(t *testing.T) {
	assert.Equal(t, []string{
		"f", "Katze", "Katzen", "Katze", "Katzen", "Katze", "Katzen", "Katze", "Katzen",
	}, katzeTable.Values())
}
