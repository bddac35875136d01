package main

import (
	"context"
	"fmt"

	"github.com/couchbase/go-couchbase"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
)

type couchbaseSink struct {
	bucket *couchbase.Bucket
}

func (s *couchbaseSink) Store(_ context.Context, d *dewiktionary.Declension) error {
	doc := newDeclensionDoc(d)
	if err := s.bucket.Set(d.NominativeSingular, 0, doc); err != nil {
		return fmt.Errorf("setting %v: %w", d.NominativeSingular, err)
	}
	return nil
}

// NewCBLoadCmd creates the cbload command.
func NewCBLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cbload [dump]",
		Short: "Load declension tables into Couchbase",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			server, _ := cmd.Flags().GetString("couchbase")
			pool, _ := cmd.Flags().GetString("pool")
			bucketName, _ := cmd.Flags().GetString("bucket")
			bucket, err := couchbase.GetBucket(server, pool, bucketName)
			if err != nil {
				return fmt.Errorf("connecting to couchbase: %w", err)
			}
			defer bucket.Close()

			_, err = runImport(cmd, cfg, logger, &couchbaseSink{bucket: bucket})
			return err
		},
	}
	cmd.Flags().String("couchbase", "http://localhost:8091/", "Couchbase URL")
	cmd.Flags().String("pool", "default", "Couchbase pool")
	cmd.Flags().String("bucket", "default", "Couchbase bucket")
	return cmd
}
