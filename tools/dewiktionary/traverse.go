package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
)

// Malformed is a page whose declension template couldn't be read, as
// written to the traverse report.
type Malformed struct {
	Title  string
	Field  string
	Offset int
}

// malformedReport gob encodes malformed pages to w.
type malformedReport struct {
	g   *gob.Encoder
	n   int64
	err error
}

func newMalformedReport(w io.Writer) *malformedReport {
	return &malformedReport{g: gob.NewEncoder(w)}
}

func (r *malformedReport) add(p *dewiktionary.Page, te *dewiktionary.TemplateError) {
	if r.err != nil {
		return
	}
	r.err = r.g.Encode(Malformed{Title: p.Title, Field: te.Field, Offset: te.Offset})
	r.n++
}

// readMalformed decodes a report written by traverse.
func readMalformed(r io.Reader) ([]Malformed, error) {
	var rv []Malformed
	d := gob.NewDecoder(r)
	for {
		var m Malformed
		err := d.Decode(&m)
		if err == io.EOF {
			return rv, nil
		}
		if err != nil {
			return rv, err
		}
		rv = append(rv, m)
	}
}

// NewTraverseCmd creates the traverse command: a dry run that scans the
// whole dump without storing anything.
func NewTraverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traverse [dump]",
		Short: "Scan a dump without storing anything",
		Long: `Scan every page of the dump for declension tables and report the counts.

With --errors, the titles of pages whose template could not be read are
written to a gob encoded report; use --show to print such a report.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTraverseCmd,
	}
	cmd.Flags().String("errors", "", "write malformed pages to this gob file")
	cmd.Flags().String("show", "", "print the malformed pages of a gob report and exit")
	return cmd
}

func runTraverseCmd(cmd *cobra.Command, args []string) error {
	if show, _ := cmd.Flags().GetString("show"); show != "" {
		return showMalformed(cmd.OutOrStdout(), show)
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	var opts []dewiktionary.ImporterOption
	var report *malformedReport
	if fn, _ := cmd.Flags().GetString("errors"); fn != "" {
		f, err := os.Create(fn)
		if err != nil {
			return fmt.Errorf("creating error file: %w", err)
		}
		defer f.Close()
		report = newMalformedReport(f)
		opts = append(opts, dewiktionary.WithMalformedHandler(report.add))
	}

	discard := dewiktionary.SinkFunc(func(context.Context, *dewiktionary.Declension) error {
		return nil
	})
	stats, err := runImport(cmd, cfg, logger, discard, opts...)
	if err != nil {
		return err
	}
	if report != nil && report.err != nil {
		return fmt.Errorf("writing error file: %w", report.err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s tables, %s malformed, %s pages\n",
		humanize.Comma(stats.Matched), humanize.Comma(stats.Malformed),
		humanize.Comma(stats.Pages))
	return nil
}

func showMalformed(w io.Writer, fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	ms, err := readMalformed(f)
	for _, m := range ms {
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.Title, m.Field, m.Offset)
	}
	return err
}
