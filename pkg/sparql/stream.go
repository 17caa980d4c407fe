package sparql

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/usestring/sparqlx/pkg/chunk"
)

// DefaultChunkSize is the byte-chunk size used by Stream.Bytes when the
// caller passes a non-positive size.
const DefaultChunkSize = 32 * 1024

// Stream is a streamed query response body: a finite, forward-only,
// non-restartable sequence of bytes. Consuming any of its iterators is
// destructive. Close must be called when done.
type Stream struct {
	body      io.ReadCloser
	mediaType string
	format    string
	endpoint  string

	closeOnce sync.Once
	closeErr  error
}

// QueryStream executes a query and returns its response body as a Stream
// for incremental consumption. Streaming is unavailable on in-process
// graph-target clients.
func (c *Client) QueryStream(ctx context.Context, query string, opts ...QueryOption) (*Stream, error) {
	if c.local {
		return nil, opErr("stream", c.endpoint, ErrStreamingUnsupported)
	}
	op := c.newQueryOperation(query, opts)
	accept, err := negotiateAccept(op, false)
	if err != nil {
		return nil, opErr("stream", c.endpoint, err)
	}
	resp, err := c.roundTrip(ctx, "stream", c.endpoint, accept, op)
	if err != nil {
		return nil, err
	}

	s := &Stream{body: resp.Body, endpoint: c.endpoint}
	if mediaType, err := responseMediaType(resp); err == nil {
		s.mediaType = mediaType
		if name, ok := graphFormatForMediaType(mediaType); ok {
			s.format = name
		}
	}
	if s.format == "" {
		if _, known := graphFormats[op.Format]; known {
			s.format = op.Format
		}
	}
	return s, nil
}

// ContentType returns the media type the endpoint declared, if any.
func (s *Stream) ContentType() string { return s.mediaType }

// Read implements io.Reader over the response body.
func (s *Stream) Read(p []byte) (int, error) { return s.body.Read(p) }

// Close releases the response body. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.body.Close() })
	return s.closeErr
}

// Bytes yields successive chunks of up to size bytes until the body is
// exhausted; only the final chunk may be shorter. A read failure is
// yielded once as the final element's error.
func (s *Stream) Bytes(size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		for {
			buf := make([]byte, size)
			n, err := io.ReadFull(s.body, buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			switch err {
			case nil:
				continue
			case io.EOF, io.ErrUnexpectedEOF:
				return
			default:
				yield(nil, opErr("stream", s.endpoint, err))
				return
			}
		}
	}
}

// Lines yields successive newline-delimited lines of the body.
func (s *Stream) Lines() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for line, err := range chunk.Lines(s.body) {
			if err != nil {
				yield(nil, opErr("stream", s.endpoint, err))
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Graphs batches a line-delimited triple stream (N-Triples or N-Quads
// responses) into bounded sub-graphs of up to n statements each, parsing
// lazily: no batch is read or parsed until requested, and at most one
// batch is buffered. A malformed line surfaces as an error at its batch
// without corrupting previously yielded sub-graphs.
func (s *Stream) Graphs(n int) iter.Seq2[*Graph, error] {
	return func(yield func(*Graph, error) bool) {
		if s.format != "ntriples" && s.format != "nquads" {
			yield(nil, opErr("stream", s.endpoint,
				fmt.Errorf("%w: graph batching requires a line-delimited triple format, have %q",
					ErrStreamingUnsupported, s.format)))
			return
		}
		if n <= 0 {
			n = 1
		}

		var readErr error
		lines := func(yield func([]byte) bool) {
			for line, err := range chunk.Lines(s.body) {
				if err != nil {
					readErr = err
					return
				}
				trimmed := bytes.TrimSpace(line)
				if len(trimmed) == 0 || trimmed[0] == '#' {
					continue
				}
				if !yield(trimmed) {
					return
				}
			}
		}

		for batch := range chunk.Chunk(lines, n) {
			doc := bytes.Join(batch, []byte("\n"))
			var g *Graph
			var err error
			if s.format == "nquads" {
				g, err = graphFromQuads(doc)
			} else {
				g, err = convertGraph(doc, "ntriples")
			}
			if err != nil {
				yield(nil, opErr("stream", s.endpoint, err))
				return
			}
			if !yield(g, nil) {
				return
			}
		}
		if readErr != nil {
			yield(nil, opErr("stream", s.endpoint, readErr))
		}
	}
}

func graphFromQuads(doc []byte) (*Graph, error) {
	triples, err := decodeQuads(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	return &Graph{triples: triples}, nil
}
