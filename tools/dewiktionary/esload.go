package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/dustin/go-elasticsearch"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
)

// esBulkSize is how many tables are sent per bulk request.
const esBulkSize = 1000

// esSink queues tables on an elasticsearch bulk loader. The loader
// sends asynchronously, so a failed batch stops the import at the next
// table rather than at the one that failed.
type esSink struct {
	update    func(ui *elasticsearch.UpdateInstruction)
	sendBatch func()
	failed    func() error
	index     string
	counter   int
}

// esBulkErrors collects what the elasticsearch client logs through the
// standard logger while it sends batches in the background.
type esBulkErrors struct {
	logger *slog.Logger

	mu   sync.Mutex
	n    int
	last string
}

func (e *esBulkErrors) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	e.logger.Error("Elasticsearch bulk request failed", "error", msg)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.n++
	e.last = msg
	return len(p), nil
}

func (e *esBulkErrors) err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.n == 0 {
		return nil
	}
	return fmt.Errorf("%d elasticsearch bulk errors, last: %s", e.n, e.last)
}

// captureStdLog sends the standard logger's output to w until the
// returned function is called.
func captureStdLog(w io.Writer) func() {
	out, flags, prefix := log.Writer(), log.Flags(), log.Prefix()
	log.SetOutput(w)
	log.SetFlags(0)
	log.SetPrefix("")
	return func() {
		log.SetOutput(out)
		log.SetFlags(flags)
		log.SetPrefix(prefix)
	}
}

func esUpdate(index string, d *dewiktionary.Declension) *elasticsearch.UpdateInstruction {
	return &elasticsearch.UpdateInstruction{
		Id:    d.NominativeSingular,
		Index: index,
		Type:  "declension",
		Body: map[string]interface{}{
			"genus":              d.Genus,
			"article":            d.Article(),
			"nominativ_singular": d.NominativeSingular,
			"nominativ_plural":   d.NominativePlural,
			"genitiv_singular":   d.GenitiveSingular,
			"genitiv_plural":     d.GenitivePlural,
			"dativ_singular":     d.DativeSingular,
			"dativ_plural":       d.DativePlural,
			"akkusativ_singular": d.AccusativeSingular,
			"akkusativ_plural":   d.AccusativePlural,
		},
	}
}

func (s *esSink) Store(_ context.Context, d *dewiktionary.Declension) error {
	if s.failed != nil {
		if err := s.failed(); err != nil {
			return err
		}
	}
	s.counter++
	if s.counter > esBulkSize {
		s.sendBatch()
		s.counter = 0
	}
	s.update(esUpdate(s.index, d))
	return nil
}

// NewESLoadCmd creates the esload command.
func NewESLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esload [dump]",
		Short: "Load declension tables into ElasticSearch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			esurl, _ := cmd.Flags().GetString("es")
			index, _ := cmd.Flags().GetString("es-index")
			bulkErrs := &esBulkErrors{logger: logger}
			defer captureStdLog(bulkErrs)()

			es := elasticsearch.ElasticSearch{URL: esurl}
			bulkLoader := es.Bulk()

			sink := &esSink{
				update:    func(ui *elasticsearch.UpdateInstruction) { bulkLoader.Update(ui) },
				sendBatch: func() { bulkLoader.SendBatch() },
				failed:    bulkErrs.err,
				index:     index,
			}
			_, err = runImport(cmd, cfg, logger, sink)
			bulkLoader.Quit()
			return errors.Join(err, bulkErrs.err())
		},
	}
	cmd.Flags().String("es", "http://localhost:9200", "ElasticSearch URL")
	cmd.Flags().String("es-index", "dewiktionary", "ElasticSearch index")
	return cmd
}
