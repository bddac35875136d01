package dewiktionary

// A Declension is the case table of one German noun as found in a
// "Deutsch Substantiv Übersicht" template.
//
// All nine fields are always populated; a table that cannot be read
// completely is never produced.
type Declension struct {
	// Genus is the value of the Genus field, usually m, f or n.
	Genus string

	NominativeSingular string
	NominativePlural   string
	GenitiveSingular   string
	GenitivePlural     string
	DativeSingular     string
	DativePlural       string
	AccusativeSingular string
	AccusativePlural   string
}

// Article gets the definite article (der, die, das) for the genus.
//
// Genus tokens other than m, f and n have no article and yield "".
func (d Declension) Article() string {
	switch d.Genus {
	case "m":
		return "der"
	case "f":
		return "die"
	case "n":
		return "das"
	}
	return ""
}

// Values gets the nine field values in template order.
func (d Declension) Values() []string {
	return []string{
		d.Genus,
		d.NominativeSingular, d.NominativePlural,
		d.GenitiveSingular, d.GenitivePlural,
		d.DativeSingular, d.DativePlural,
		d.AccusativeSingular, d.AccusativePlural,
	}
}
