// Package dewiktionary imports German noun declension tables from the
// German Wiktionary xml dump.
//
// The dumps are available from the wikimedia group here:
//    http://dumps.wikimedia.org/dewiktionary/
//
// Pages are streamed out of the dump one at a time (see NewParser and
// NewIndexedParser), scanned for the first "Deutsch Substantiv Übersicht"
// template (see ScanDeclension) and handed to a Sink by an Importer.
//
// See the command in tools/dewiktionary for how the pieces fit together.
package dewiktionary
