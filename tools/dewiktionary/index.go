package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <index file>",
		Short: "Summarize a multistream index",
		Long: `Print the offset and page count of every stream listed in a multistream
index, followed by the totals. With --entries every page is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			in, err := dewiktionary.Decompress(args[0], r)
			if err != nil {
				return err
			}
			defer in.Close()

			if entries, _ := cmd.Flags().GetBool("entries"); entries {
				return printIndexEntries(cmd.OutOrStdout(), in)
			}
			return printIndexSummary(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().Bool("entries", false, "print every index entry")
	return cmd
}

func printIndexEntries(w io.Writer, r io.Reader) error {
	ir := dewiktionary.NewIndexReader(r)
	for {
		e, err := ir.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading index: %w", err)
		}
		fmt.Fprintln(w, e.String())
	}
}

func printIndexSummary(w io.Writer, r io.Reader) error {
	isr, err := dewiktionary.NewIndexSummaryReader(r)
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	var streams, pages int64
	for {
		c, err := isr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading index: %w", err)
		}
		streams++
		pages += int64(c.Count)
		fmt.Fprintf(w, "%d\t%d\n", c.Offset, c.Count)
	}
	fmt.Fprintf(w, "%s streams, %s pages\n", humanize.Comma(streams), humanize.Comma(pages))
	return nil
}
