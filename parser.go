package dewiktionary

import (
	"encoding/xml"
	"io"
)

// The toplevel site info describing basic dump properties.
type SiteInfo struct {
	SiteName   string `xml:"sitename"`
	Base       string `xml:"base"`
	Generator  string `xml:"generator"`
	Case       string `xml:"case"`
	Namespaces []struct {
		Key   string `xml:"key,attr"`
		Case  string `xml:"case,attr"`
		Value string `xml:",chardata"`
	} `xml:"namespaces>namespace"`
}

// A user who contributed a revision.
type Contributor struct {
	ID       uint64 `xml:"id"`
	Username string `xml:"username"`
}

// A revision to a page.
type Revision struct {
	ID          uint64      `xml:"id"`
	Timestamp   string      `xml:"timestamp"`
	Contributor Contributor `xml:"contributor"`
	Comment     string      `xml:"comment"`
	Model       string      `xml:"model"`
	Format      string      `xml:"format"`
	Text        string      `xml:"text"`
}

// A wiki page.
type Page struct {
	Title     string     `xml:"title"`
	NS        int        `xml:"ns"`
	ID        uint64     `xml:"id"`
	Revisions []Revision `xml:"revision"`
}

// Text is the wikitext of the page's first revision.
//
// Article dumps carry exactly one revision per page; a page without
// any revision has no text.
func (p *Page) Text() string {
	if len(p.Revisions) == 0 {
		return ""
	}
	return p.Revisions[0].Text
}

// That which emits wiki pages.
type Parser interface {
	// Next gets the next page, or io.EOF once the dump is exhausted.
	Next() (*Page, error)
	// SiteInfo is the toplevel site info.
	SiteInfo() SiteInfo
}

type singleStreamParser struct {
	siteInfo SiteInfo
	x        *xml.Decoder
}

// NewParser gets a wiktionary dump parser reading from the given
// (already decompressed) reader.
func NewParser(r io.Reader) (Parser, error) {
	d := xml.NewDecoder(r)
	si, err := readHeader(d)
	if err != nil {
		return nil, err
	}

	return &singleStreamParser{
		siteInfo: si,
		x:        d,
	}, nil
}

// readHeader consumes the <mediawiki> start element and the <siteinfo>
// that follows it.
func readHeader(d *xml.Decoder) (SiteInfo, error) {
	for {
		t, err := d.Token()
		if err != nil {
			return SiteInfo{}, err
		}
		if _, ok := t.(xml.StartElement); ok {
			break
		}
	}

	si := SiteInfo{}
	err := d.Decode(&si)
	return si, err
}

func (p *singleStreamParser) Next() (rv *Page, err error) {
	rv = new(Page)
	err = p.x.Decode(rv)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (p *singleStreamParser) SiteInfo() SiteInfo {
	return p.siteInfo
}
