package dewiktionary

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompressed(t *testing.T, fn, data string) {
	t.Helper()
	f, err := os.Create(fn)
	require.NoError(t, err)
	defer f.Close()

	var w io.WriteCloser
	switch filepath.Ext(fn) {
	case ".gz":
		w = gzip.NewWriter(f)
	case ".zst":
		w, err = zstd.NewWriter(f)
		require.NoError(t, err)
	default:
		_, err = f.WriteString(data)
		require.NoError(t, err)
		return
	}
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestOpenDump(t *testing.T) {
	dump := testDump(testPage(1, "Katze", katze), testPage(2, "Hund", "kein Substantiv"))
	dir := t.TempDir()

	for _, name := range []string{"dump.xml", "dump.xml.gz", "dump.xml.zst"} {
		t.Run(name, func(t *testing.T) {
			fn := filepath.Join(dir, name)
			writeCompressed(t, fn, dump)

			r, err := OpenDump(fn)
			require.NoError(t, err)
			defer r.Close()

			p, err := NewParser(r)
			require.NoError(t, err)
			page, err := p.Next()
			require.NoError(t, err)
			assert.Equal(t, "Katze", page.Title)
			page, err = p.Next()
			require.NoError(t, err)
			assert.Equal(t, "Hund", page.Title)
			_, err = p.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestOpenDumpErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenDump(filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	fn := filepath.Join(dir, "plain.xml.gz")
	require.NoError(t, os.WriteFile(fn, []byte("<mediawiki>"), 0o644))
	_, err = OpenDump(fn)
	assert.ErrorContains(t, err, "gzip")
}

func TestDecompressPlain(t *testing.T) {
	r, err := Decompress("dump.xml", strings.NewReader("<mediawiki/>"))
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<mediawiki/>", string(b))
	assert.NoError(t, r.Close())
}
