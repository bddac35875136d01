package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/mgo.v2"

	"github.com/derdiedas/go-dewiktionary"
)

// Words are unique per collection; the first page in the dump wins.
var wordIndex = mgo.Index{
	Key:        []string{"nominativsingular"},
	Unique:     true,
	DropDups:   true,
	Background: true,
	Sparse:     true,
}

type declensionRecord struct {
	Genus             string ",omitempty"
	Article           string ",omitempty"
	NominativSingular string ",omitempty"
	NominativPlural   string ",omitempty"
	GenitivSingular   string ",omitempty"
	GenitivPlural     string ",omitempty"
	DativSingular     string ",omitempty"
	DativPlural       string ",omitempty"
	AkkusativSingular string ",omitempty"
	AkkusativPlural   string ",omitempty"
}

func newDeclensionRecord(d *dewiktionary.Declension) declensionRecord {
	doc := newDeclensionDoc(d)
	return declensionRecord{
		Genus:             doc.Genus,
		Article:           doc.Article,
		NominativSingular: doc.NominativSingular,
		NominativPlural:   doc.NominativPlural,
		GenitivSingular:   doc.GenitivSingular,
		GenitivPlural:     doc.GenitivPlural,
		DativSingular:     doc.DativSingular,
		DativPlural:       doc.DativPlural,
		AkkusativSingular: doc.AkkusativSingular,
		AkkusativPlural:   doc.AkkusativPlural,
	}
}

type mgoSink struct {
	c      *mgo.Collection
	logger *slog.Logger
}

func (s *mgoSink) Store(_ context.Context, d *dewiktionary.Declension) error {
	err := s.c.Insert(newDeclensionRecord(d))
	if mgo.IsDup(err) {
		s.logger.Debug("Duplicate word", "word", d.NominativeSingular)
		return nil
	}
	if err != nil {
		return fmt.Errorf("inserting %s: %w", d.NominativeSingular, err)
	}
	return nil
}

// NewMgoLoadCmd creates the mgoload command.
func NewMgoLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mgoload [dump]",
		Short: "Load declension tables into MongoDB",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			dburl, _ := cmd.Flags().GetString("dburl")
			dbname, _ := cmd.Flags().GetString("dbname")
			collection, _ := cmd.Flags().GetString("collection")

			session, err := mgo.Dial(dburl)
			if err != nil {
				return fmt.Errorf("connecting to mongodb: %w", err)
			}
			defer session.Close()

			c := session.DB(dbname).C(collection)
			if err := c.EnsureIndex(wordIndex); err != nil {
				return fmt.Errorf("creating word index: %w", err)
			}

			_, err = runImport(cmd, cfg, logger, &mgoSink{c: c, logger: logger})
			return err
		},
	}
	cmd.Flags().String("dburl", "localhost", "The dburl(s). I.e. localhost.")
	cmd.Flags().String("dbname", "dewiktionary", "The database name to use.")
	cmd.Flags().String("collection", "declensions", "The collection to store tables in.")
	return cmd
}
