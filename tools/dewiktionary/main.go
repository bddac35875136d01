// Command dewiktionary imports German noun declension tables from a
// German Wiktionary dump.
//
// Usage:
//
//	dewiktionary import [opts] dewiktionary-latest-pages-articles.xml.bz2
//	dewiktionary import --index index.txt.bz2 multistream.xml.bz2
//	dewiktionary traverse [opts] dump.xml.bz2
//
// See --help for the other loaders and all options.
package main

func main() {
	Execute()
}
