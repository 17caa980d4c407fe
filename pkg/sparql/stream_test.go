package sparql_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/sparqlx/pkg/sparql"
	"github.com/usestring/sparqlx/pkg/sparql/sparqltest"
)

func newStream(t *testing.T, contentType string, body []byte, opts ...sparql.QueryOption) *sparql.Stream {
	t.Helper()
	srv := sparqltest.NewServer(http.StatusOK, contentType, body)
	t.Cleanup(srv.Close)

	client, err := sparql.New(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	stream, err := client.QueryStream(context.Background(),
		"CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stream.Close() })
	return stream
}

func TestStreamBytes(t *testing.T) {
	stream := newStream(t, "text/turtle", []byte("0123456789"))
	assert.Equal(t, "text/turtle", stream.ContentType())

	var chunks []string
	for c, err := range stream.Bytes(4) {
		require.NoError(t, err)
		chunks = append(chunks, string(c))
	}
	assert.Equal(t, []string{"0123", "4567", "89"}, chunks)
}

func TestStreamLines(t *testing.T) {
	stream := newStream(t, "application/n-triples", []byte("a\nb\nc\n"))

	var lines []string
	for line, err := range stream.Lines() {
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestStreamGraphs(t *testing.T) {
	body := strings.Join([]string{
		"# comment lines and blanks are not statements",
		"<http://example.org/s1> <http://example.org/p> <http://example.org/o> .",
		"",
		"<http://example.org/s2> <http://example.org/p> <http://example.org/o> .",
		"<http://example.org/s3> <http://example.org/p> <http://example.org/o> .",
		"<http://example.org/s4> <http://example.org/p> <http://example.org/o> .",
		"<http://example.org/s5> <http://example.org/p> <http://example.org/o> .",
		"",
	}, "\n")
	stream := newStream(t, "application/n-triples", []byte(body))

	var sizes []int
	for g, err := range stream.Graphs(2) {
		require.NoError(t, err)
		sizes = append(sizes, g.Len())
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestStreamGraphsNQuads(t *testing.T) {
	body := strings.Join([]string{
		"<http://example.org/s1> <http://example.org/p> <http://example.org/o> <http://example.org/g> .",
		"<http://example.org/s2> <http://example.org/p> <http://example.org/o> <http://example.org/g> .",
		"<http://example.org/s3> <http://example.org/p> <http://example.org/o> .",
	}, "\n")
	stream := newStream(t, "application/n-quads", []byte(body))

	var total int
	for g, err := range stream.Graphs(10) {
		require.NoError(t, err)
		total += g.Len()
	}
	assert.Equal(t, 3, total)
}

// A malformed statement surfaces as an error at its batch; batches already
// yielded stay valid.
func TestStreamGraphsMalformedLine(t *testing.T) {
	body := strings.Join([]string{
		"<http://example.org/s1> <http://example.org/p> <http://example.org/o> .",
		"<http://example.org/s2> <http://example.org/p> <http://example.org/o> .",
		"this is not a triple",
	}, "\n")
	stream := newStream(t, "application/n-triples", []byte(body))

	var good int
	var gotErr error
	for g, err := range stream.Graphs(2) {
		if err != nil {
			gotErr = err
			break
		}
		good += g.Len()
	}
	assert.Equal(t, 2, good)
	assert.ErrorIs(t, gotErr, sparql.ErrMalformedResults)
}

// Graph batching needs a line-delimited triple format.
func TestStreamGraphsWrongFormat(t *testing.T) {
	stream := newStream(t, "text/turtle", []byte("@prefix ex: <http://example.org/> ."))

	var gotErr error
	for _, err := range stream.Graphs(2) {
		gotErr = err
		break
	}
	assert.ErrorIs(t, gotErr, sparql.ErrStreamingUnsupported)
}

// When the endpoint declares a media type outside the format table, the
// requested format decides the parser.
func TestStreamFormatFallback(t *testing.T) {
	stream := newStream(t, "application/octet-stream",
		[]byte("<http://example.org/s> <http://example.org/p> <http://example.org/o> ."),
		sparql.WithResponseFormat("ntriples"))

	var total int
	for g, err := range stream.Graphs(5) {
		require.NoError(t, err)
		total += g.Len()
	}
	assert.Equal(t, 1, total)
}

func TestStreamReadAndClose(t *testing.T) {
	stream := newStream(t, "text/turtle", []byte("abc"))

	raw, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(raw))

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "Close is idempotent")
}
