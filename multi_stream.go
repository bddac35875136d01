package dewiktionary

import (
	"compress/bzip2"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

type chunkJob struct {
	chunk  IndexChunk
	result chan<- chunkResult
}

type chunkResult struct {
	pages []*Page
	err   error
}

// multiStreamParser decodes the streams of a multistream dump on
// several workers and hands their pages out in index order.
type multiStreamParser struct {
	ctx      context.Context
	siteInfo SiteInfo

	// ordered carries one result channel per chunk, in index order.
	ordered <-chan chan chunkResult
	pending []*Page
	err     error
}

// NewIndexedParser gets a multistream dump parser reading from the
// given bzip2 compressed index and data files.
//
// Streams are decoded by numWorkers workers, but pages come out of Next
// in the same order as they are in the dump. Cancelling ctx stops the
// workers; Next then reports the cancellation.
//
// Callers that stop calling Next before io.EOF must cancel ctx, or the
// workers and the open index file are never released.
func NewIndexedParser(ctx context.Context, indexfn, datafn string, numWorkers int) (Parser, error) {
	r, err := os.Open(datafn)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	si, err := readHeader(xml.NewDecoder(bzip2.NewReader(r)))
	if err != nil {
		return nil, fmt.Errorf("reading site info from %v: %w", datafn, err)
	}

	ir, err := os.Open(indexfn)
	if err != nil {
		return nil, err
	}
	isr, err := NewIndexSummaryReader(bzip2.NewReader(ir))
	if err != nil {
		ir.Close()
		return nil, fmt.Errorf("reading index %v: %w", indexfn, err)
	}

	open := func() (io.ReadSeekCloser, error) { return os.Open(datafn) }
	decompress := func(r io.Reader) io.Reader { return bzip2.NewReader(r) }
	return newMultiStreamParser(ctx, si, isr, ir, open, decompress, numWorkers), nil
}

func newMultiStreamParser(ctx context.Context, si SiteInfo,
	isr *IndexSummaryReader, index io.Closer,
	open func() (io.ReadSeekCloser, error),
	decompress func(io.Reader) io.Reader,
	numWorkers int) *multiStreamParser {

	if numWorkers < 1 {
		numWorkers = 1
	}
	ordered := make(chan chan chunkResult, 2*numWorkers)
	jobs := make(chan chunkJob)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ordered)
		defer close(jobs)
		defer index.Close()
		return dispatchChunks(gctx, isr, jobs, ordered)
	})
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			return multiStreamWorker(gctx, open, decompress, jobs)
		})
	}
	go g.Wait()

	return &multiStreamParser{
		ctx:      ctx,
		siteInfo: si,
		ordered:  ordered,
	}
}

// dispatchChunks queues every chunk of the index for the workers and
// records where its result will show up.
func dispatchChunks(ctx context.Context, isr *IndexSummaryReader,
	jobs chan<- chunkJob, ordered chan<- chan chunkResult) error {

	for {
		chunk, err := isr.Next()
		if err == io.EOF {
			return nil
		}

		result := make(chan chunkResult, 1)
		if err != nil {
			result <- chunkResult{err: fmt.Errorf("reading index: %w", err)}
		}
		select {
		case ordered <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil {
			// Already handed to Next, in order.
			return nil
		}

		select {
		case jobs <- chunkJob{chunk, result}:
		case <-ctx.Done():
			result <- chunkResult{err: ctx.Err()}
			return ctx.Err()
		}
	}
}

func multiStreamWorker(ctx context.Context, open func() (io.ReadSeekCloser, error),
	decompress func(io.Reader) io.Reader, jobs <-chan chunkJob) error {

	r, err := open()
	if err != nil {
		for job := range jobs {
			job.result <- chunkResult{err: err}
		}
		return err
	}
	defer r.Close()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			job.result <- chunkResult{err: err}
			continue
		}
		pages, err := decodeChunk(r, decompress, job.chunk)
		job.result <- chunkResult{pages, err}
	}
	return nil
}

func decodeChunk(r io.ReadSeeker, decompress func(io.Reader) io.Reader,
	chunk IndexChunk) ([]*Page, error) {

	_, err := r.Seek(chunk.Offset, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("seeking to stream at %v: %w", chunk.Offset, err)
	}
	d := xml.NewDecoder(decompress(r))

	pages := make([]*Page, 0, chunk.Count)
	for i := 0; i < chunk.Count; i++ {
		p := new(Page)
		if err := d.Decode(p); err != nil {
			return nil, fmt.Errorf("decoding page %d of stream at %v: %w",
				i, chunk.Offset, err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (p *multiStreamParser) Next() (*Page, error) {
	for len(p.pending) == 0 {
		if p.err != nil {
			return nil, p.err
		}
		result, ok := <-p.ordered
		if !ok {
			// Dispatching stops early on cancellation.
			p.err = p.ctx.Err()
			if p.err == nil {
				p.err = io.EOF
			}
			continue
		}
		r := <-result
		if r.err != nil {
			p.err = r.err
			continue
		}
		p.pending = r.pages
	}

	rv := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return rv, nil
}

func (p *multiStreamParser) SiteInfo() SiteInfo {
	return p.siteInfo
}
