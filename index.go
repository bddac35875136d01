package dewiktionary

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// An IndexEntry is an individual page from a multistream index.
type IndexEntry struct {
	// StreamOffset is the byte offset of the bzip2 stream holding the
	// page.
	StreamOffset int64
	PageID       uint64
	Title        string
}

func (i IndexEntry) String() string {
	return fmt.Sprintf("%v:%v:%v",
		i.StreamOffset, i.PageID, i.Title)
}

// An IndexReader is a multistream index reader.
type IndexReader struct {
	r          *bufio.Scanner
	line       int
	base       int64
	prevOffset int64
}

// Next gets the next entry from the index stream.
//
// Offsets are assumed to only ever grow; older index files wrote them
// as 32 bit numbers, so an offset going backwards is taken as a wrap.
func (ir *IndexReader) Next() (IndexEntry, error) {
	if !ir.r.Scan() {
		err := ir.r.Err()
		if err == nil {
			err = io.EOF
		}
		return IndexEntry{}, err
	}
	ir.line++

	parts := strings.SplitN(ir.r.Text(), ":", 3)
	if len(parts) != 3 {
		return IndexEntry{}, fmt.Errorf("index line %d: bad record", ir.line)
	}
	offset, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("index line %d: offset: %w", ir.line, err)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("index line %d: page id: %w", ir.line, err)
	}

	if offset < ir.prevOffset {
		ir.base += (1 << 32)
	}
	ir.prevOffset = offset

	return IndexEntry{
		StreamOffset: offset + ir.base,
		PageID:       id,
		Title:        parts[2],
	}, nil
}

// NewIndexReader gets a multistream index reader.
func NewIndexReader(r io.Reader) *IndexReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &IndexReader{r: s}
}

// An IndexChunk is one bzip2 stream of a multistream dump.
type IndexChunk struct {
	Offset int64
	// Count is the number of pages in the stream.
	Count int
}

// IndexSummaryReader gets offsets and counts from an index.
//
// If you don't want to know the individual pages, just how many
// and where, this is for you.
type IndexSummaryReader struct {
	index *IndexReader
	cur   IndexChunk
	done  bool
}

// NewIndexSummaryReader gets a new IndexSummaryReader from the given
// stream of index lines.
func NewIndexSummaryReader(r io.Reader) (*IndexSummaryReader, error) {
	rv := &IndexSummaryReader{index: NewIndexReader(r)}
	first, err := rv.index.Next()
	if err != nil {
		return nil, err
	}
	rv.cur = IndexChunk{Offset: first.StreamOffset, Count: 1}
	return rv, nil
}

// Next gets the next chunk from the index summary reader, or io.EOF
// after the last one.
func (isr *IndexSummaryReader) Next() (IndexChunk, error) {
	if isr.done {
		return IndexChunk{}, io.EOF
	}
	for {
		e, err := isr.index.Next()
		if err == io.EOF {
			isr.done = true
			return isr.cur, nil
		}
		if err != nil {
			return IndexChunk{}, err
		}

		if e.StreamOffset != isr.cur.Offset {
			rv := isr.cur
			isr.cur = IndexChunk{Offset: e.StreamOffset, Count: 1}
			return rv, nil
		}
		isr.cur.Count++
	}
}
