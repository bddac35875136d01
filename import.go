package dewiktionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// A Sink persists declension tables.
//
// Store is called synchronously, once per table, in the order the
// pages were found in the dump. Any error aborts the import.
type Sink interface {
	Store(ctx context.Context, d *Declension) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, d *Declension) error

// Store calls f(ctx, d).
func (f SinkFunc) Store(ctx context.Context, d *Declension) error {
	return f(ctx, d)
}

// A DecodeError reports a dump that could not be read.
type DecodeError struct {
	// Pages is how many pages were read successfully before it.
	Pages int64
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error reading dump after %s pages: %v",
		humanize.Comma(e.Pages), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// A StoreError reports a table the Sink failed to persist.
type StoreError struct {
	Title string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("error storing declension of %q: %v", e.Title, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Stats counts what an import has seen so far.
type Stats struct {
	// Pages is the number of pages read from the dump.
	Pages int64
	// Matched is the number of declension tables stored.
	Matched int64
	// Malformed is the number of pages with a template that couldn't
	// be read.
	Malformed int64
	Elapsed   time.Duration
}

// An Importer moves declension tables from a dump into a Sink.
type Importer struct {
	sink        Sink
	logger      *slog.Logger
	metrics     *Metrics
	reportEvery int64
	readAhead   int
	onMalformed func(p *Page, err *TemplateError)
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the logger progress is reported to.
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(im *Importer) {
		im.logger = logger
	}
}

// WithMetrics counts pages and tables in m as well.
func WithMetrics(m *Metrics) ImporterOption {
	return func(im *Importer) {
		im.metrics = m
	}
}

// WithReportEvery logs a throughput line every n pages. Zero disables
// it.
func WithReportEvery(n int64) ImporterOption {
	return func(im *Importer) {
		if n >= 0 {
			im.reportEvery = n
		}
	}
}

// WithReadAhead decodes up to n pages ahead of the one being scanned,
// on a separate goroutine. Tables still reach the sink in dump order.
func WithReadAhead(n int) ImporterOption {
	return func(im *Importer) {
		if n >= 0 {
			im.readAhead = n
		}
	}
}

// WithMalformedHandler gets called for every page whose template is
// malformed. Those pages are skipped either way.
func WithMalformedHandler(fn func(p *Page, err *TemplateError)) ImporterOption {
	return func(im *Importer) {
		im.onMalformed = fn
	}
}

// NewImporter creates an Importer storing into sink.
func NewImporter(sink Sink, opts ...ImporterOption) *Importer {
	im := &Importer{
		sink:        sink,
		reportEvery: 1000,
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.logger == nil {
		im.logger = slog.Default()
	}
	return im
}

// Run imports every page p emits until it's exhausted.
//
// A dump that can't be read yields a *DecodeError, a failing sink a
// *StoreError; either ends the run right away. Cancelling ctx stops the
// run before the next page and returns ctx.Err().
func (im *Importer) Run(ctx context.Context, p Parser) (Stats, error) {
	if im.readAhead == 0 {
		return im.run(ctx, p.Next)
	}

	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan pageOrErr, im.readAhead)
	g.Go(func() error {
		defer close(ch)
		for {
			page, err := p.Next()
			select {
			case ch <- pageOrErr{page, err}:
			case <-gctx.Done():
				return nil
			}
			if err != nil {
				return nil
			}
		}
	})

	var stats Stats
	g.Go(func() error {
		var err error
		stats, err = im.run(ctx, func() (*Page, error) {
			pe, ok := <-ch
			if !ok {
				return nil, io.EOF
			}
			return pe.page, pe.err
		})
		return err
	})

	err := g.Wait()
	return stats, err
}

type pageOrErr struct {
	page *Page
	err  error
}

func (im *Importer) run(ctx context.Context, next func() (*Page, error)) (Stats, error) {
	var stats Stats
	start := time.Now()
	prev := start

	for {
		if err := ctx.Err(); err != nil {
			return im.finish(stats, start), err
		}

		page, err := next()
		if errors.Is(err, io.EOF) {
			// The read-ahead producer stops early when ctx is done.
			if err := ctx.Err(); err != nil {
				return im.finish(stats, start), err
			}
			break
		}
		if err != nil {
			return im.finish(stats, start), &DecodeError{Pages: stats.Pages, Err: err}
		}

		stats.Pages++
		im.metrics.page()
		if im.reportEvery > 0 && stats.Pages%im.reportEvery == 0 {
			now := time.Now()
			d := now.Sub(prev)
			im.logger.Info(fmt.Sprintf("Processed %s pages total (%.2f/s)",
				humanize.Comma(stats.Pages), float64(im.reportEvery)/d.Seconds()))
			prev = now
		}

		d, err := ParseDeclension(page.Text())
		if err != nil {
			var te *TemplateError
			if errors.As(err, &te) {
				stats.Malformed++
				im.metrics.malformed()
				im.logger.Debug("malformed declension table",
					"title", page.Title, "field", te.Field, "offset", te.Offset)
				if im.onMalformed != nil {
					im.onMalformed(page, te)
				}
			}
			continue
		}

		if err := im.sink.Store(ctx, &d); err != nil {
			return im.finish(stats, start), &StoreError{Title: page.Title, Err: err}
		}
		stats.Matched++
		im.metrics.matched()
		im.logger.Info(fmt.Sprintf("Found %s tables in %s pages",
			humanize.Comma(stats.Matched), humanize.Comma(stats.Pages)),
			"title", page.Title)
	}

	stats = im.finish(stats, start)
	im.logger.Info(fmt.Sprintf("Ended after %v: %s tables in %s pages (%.2f p/s)",
		stats.Elapsed, humanize.Comma(stats.Matched), humanize.Comma(stats.Pages),
		float64(stats.Pages)/stats.Elapsed.Seconds()))
	return stats, nil
}

func (im *Importer) finish(stats Stats, start time.Time) Stats {
	stats.Elapsed = time.Since(start)
	return stats
}
