package dewiktionary

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type dumpReader struct {
	io.Reader
	closers []func() error
}

func (d *dumpReader) Close() error {
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if cerr := d.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// OpenDump opens a dump file, decompressing it according to its
// extension: .bz2 (including multistream dumps), .gz or .zst. Anything
// else is read as plain xml.
func OpenDump(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r, err := decompress(filename, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append([]func() error{f.Close}, r.closers...)
	return r, nil
}

// Decompress wraps r in the decompressor the name's extension calls
// for. Closing the result releases the decompressor, not r.
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	d, err := decompress(name, r)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func decompress(name string, r io.Reader) (*dumpReader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	switch {
	case strings.HasSuffix(name, ".bz2"):
		// Multistream dumps are plain concatenated bzip2 streams,
		// which the bzip2 reader reads through.
		return &dumpReader{Reader: bzip2.NewReader(br)}, nil
	case strings.HasSuffix(name, ".gz"):
		z, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &dumpReader{Reader: z, closers: []func() error{z.Close}}, nil
	case strings.HasSuffix(name, ".zst"):
		z, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return &dumpReader{Reader: z, closers: []func() error{
			func() error { z.Close(); return nil },
		}}, nil
	}
	return &dumpReader{Reader: br}, nil
}
