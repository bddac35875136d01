package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-couch"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
)

// A declensionDoc is a declension table as stored in the document
// databases, keyed by the nominative singular.
type declensionDoc struct {
	ID                string `json:"_id,omitempty"`
	Rev               string `json:"_rev,omitempty"`
	Genus             string `json:"genus"`
	Article           string `json:"article,omitempty"`
	NominativSingular string `json:"nominativ_singular"`
	NominativPlural   string `json:"nominativ_plural"`
	GenitivSingular   string `json:"genitiv_singular"`
	GenitivPlural     string `json:"genitiv_plural"`
	DativSingular     string `json:"dativ_singular"`
	DativPlural       string `json:"dativ_plural"`
	AkkusativSingular string `json:"akkusativ_singular"`
	AkkusativPlural   string `json:"akkusativ_plural"`
}

func newDeclensionDoc(d *dewiktionary.Declension) declensionDoc {
	return declensionDoc{
		Genus:             d.Genus,
		Article:           d.Article(),
		NominativSingular: d.NominativeSingular,
		NominativPlural:   d.NominativePlural,
		GenitivSingular:   d.GenitiveSingular,
		GenitivPlural:     d.GenitivePlural,
		DativSingular:     d.DativeSingular,
		DativPlural:       d.DativePlural,
		AkkusativSingular: d.AccusativeSingular,
		AkkusativPlural:   d.AccusativePlural,
	}
}

func escapeID(in string) string {
	return strings.Replace(strings.Replace(in, "/", "%2f", -1),
		"+", "%2b", -1)
}

type couchSink struct {
	db     *couch.Database
	logger *slog.Logger
}

func (s *couchSink) Store(_ context.Context, d *dewiktionary.Declension) error {
	doc := newDeclensionDoc(d)
	doc.ID = escapeID(d.NominativeSingular)

	_, _, err := s.db.Insert(&doc)
	httpe, isHTTPError := err.(*couch.HTTPError)
	switch {
	case err == nil:
		return nil
	case isHTTPError && httpe.Status == 409:
		return s.resolveConflict(&doc)
	default:
		return fmt.Errorf("inserting %v: %w", doc.ID, err)
	}
}

// resolveConflict replaces a table stored under the same word by an
// earlier page; the last page in the dump wins.
func (s *couchSink) resolveConflict(doc *declensionDoc) error {
	s.logger.Debug("Resolving conflict", "id", doc.ID)
	var prev declensionDoc
	if err := s.db.Retrieve(doc.ID, &prev); err != nil {
		return fmt.Errorf("retrieving existing %v: %w", doc.ID, err)
	}
	if prev.Rev == "" {
		return fmt.Errorf("got no rev from %v", doc.ID)
	}
	if _, err := s.db.EditWith(doc, doc.ID, prev.Rev); err != nil {
		return fmt.Errorf("updating %v: %w", doc.ID, err)
	}
	return nil
}

// NewCouchLoadCmd creates the couchload command.
func NewCouchLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "couchload [dump]",
		Short: "Load declension tables into CouchDB",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			dburl, _ := cmd.Flags().GetString("couchdb")
			db, err := couch.Connect(dburl)
			if err != nil {
				return fmt.Errorf("connecting to couchdb: %w", err)
			}

			_, err = runImport(cmd, cfg, logger, &couchSink{db: &db, logger: logger})
			return err
		},
	}
	cmd.Flags().String("couchdb", "http://localhost:5984/dewiktionary", "CouchDB database URL")
	return cmd
}
