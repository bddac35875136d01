package dewiktionary

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSeekCloser struct {
	*strings.Reader
}

func (nopSeekCloser) Close() error { return nil }

// testStreams lays out chunks the way a multistream dump does and
// returns the data along with its index. Streams are left uncompressed.
func testStreams(chunks ...[]string) (data, index string) {
	var d, idx strings.Builder
	d.WriteString(testDump()[:strings.Index(testDump(), "</mediawiki>")])
	id := 1
	for _, chunk := range chunks {
		offset := d.Len()
		for _, title := range chunk {
			d.WriteString(testPage(id, title, "{{"+title+"}}"))
			fmt.Fprintf(&idx, "%d:%d:%s\n", offset, id, title)
			id++
		}
	}
	d.WriteString("</mediawiki>\n")
	return d.String(), idx.String()
}

func newTestMultiStream(t *testing.T, ctx context.Context, data, index string, workers int) *multiStreamParser {
	t.Helper()
	isr, err := NewIndexSummaryReader(strings.NewReader(index))
	require.NoError(t, err)

	open := func() (io.ReadSeekCloser, error) {
		return nopSeekCloser{strings.NewReader(data)}, nil
	}
	identity := func(r io.Reader) io.Reader { return r }
	return newMultiStreamParser(ctx, SiteInfo{SiteName: "Wiktionary"}, isr,
		io.NopCloser(strings.NewReader("")), open, identity, workers)
}

func TestMultiStreamOrder(t *testing.T) {
	var chunks [][]string
	var want []string
	for i := 0; i < 25; i++ {
		var chunk []string
		for j := 0; j <= i%4; j++ {
			title := fmt.Sprintf("Seite %d.%d", i, j)
			chunk = append(chunk, title)
			want = append(want, title)
		}
		chunks = append(chunks, chunk)
	}
	data, index := testStreams(chunks...)

	for _, workers := range []int{0, 1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			p := newTestMultiStream(t, context.Background(), data, index, workers)
			assert.Equal(t, "Wiktionary", p.SiteInfo().SiteName)

			var got []string
			for {
				page, err := p.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				assert.Equal(t, "{{"+page.Title+"}}", page.Text())
				got = append(got, page.Title)
			}
			assert.Equal(t, want, got)

			_, err := p.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestMultiStreamBadChunk(t *testing.T) {
	data, index := testStreams([]string{"Katze", "Hund"}, []string{"Maus"})
	// The index claims more pages in the last stream than it holds.
	lines := strings.Split(index, "\n")
	index += strings.SplitN(lines[2], ":", 2)[0] + ":99:Ratte\n"

	p := newTestMultiStream(t, context.Background(), data, index, 1)

	var got []string
	var err error
	for err == nil {
		var page *Page
		page, err = p.Next()
		if err == nil {
			got = append(got, page.Title)
		}
	}
	assert.Equal(t, []string{"Katze", "Hund"}, got)
	assert.NotEqual(t, io.EOF, err)
	assert.Contains(t, err.Error(), "decoding page 1")

	// The error sticks.
	_, err2 := p.Next()
	assert.Equal(t, err, err2)
}

func TestMultiStreamBadIndex(t *testing.T) {
	data, index := testStreams([]string{"Katze"}, []string{"Maus"})
	index += "kaputt\n"

	p := newTestMultiStream(t, context.Background(), data, index, 2)

	page, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "Katze", page.Title)

	// The stream before the bad line isn't known to be complete.
	_, err = p.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad record")
}

func TestMultiStreamCancel(t *testing.T) {
	var chunks [][]string
	for i := 0; i < 50; i++ {
		chunks = append(chunks, []string{fmt.Sprintf("Seite %d", i)})
	}
	data, index := testStreams(chunks...)

	ctx, cancel := context.WithCancel(context.Background())
	p := newTestMultiStream(t, ctx, data, index, 2)
	_, err := p.Next()
	require.NoError(t, err)
	cancel()

	for err == nil {
		_, err = p.Next()
	}
	assert.ErrorIs(t, err, context.Canceled)
}
