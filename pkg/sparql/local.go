package sparql

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// localEndpointURL is the pseudo-endpoint used by in-process clients. It
// never sees the network; the local transport intercepts every request.
const localEndpointURL = "http://graph.local/sparql"

// Endpoint evaluates SPARQL operations in-process. It stands in for a
// remote endpoint when operations target an in-memory graph: implementors
// receive the decoded operation and answer with a serialized response body
// and its media type. op.Format carries the requested Accept media type.
type Endpoint interface {
	Serve(op *Operation) (contentType string, body []byte, err error)
}

// EndpointFunc adapts a function to the Endpoint interface.
type EndpointFunc func(op *Operation) (string, []byte, error)

// Serve calls f.
func (f EndpointFunc) Serve(op *Operation) (string, []byte, error) { return f(op) }

// NewLocal creates a Client whose operations are delivered to an
// in-process Endpoint instead of a remote server. Requests are built and
// responses are shaped through exactly the same logic as the remote path;
// only the transport differs. Streaming is not available in this mode.
func NewLocal(endpoint Endpoint, opts ...Option) (*Client, error) {
	opts = append([]Option{WithTransport(&localTransport{endpoint: endpoint})}, opts...)
	c, err := New(localEndpointURL, opts...)
	if err != nil {
		return nil, err
	}
	if !c.ownsClient {
		return nil, fmt.Errorf("sparqlx: an in-process client cannot borrow an HTTP client")
	}
	c.local = true
	return c, nil
}

// localTransport fulfils requests without network I/O: it decodes the wire
// request back into an Operation and hands it to the Endpoint.
type localTransport struct {
	endpoint Endpoint
}

func (t *localTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	op, err := decodeWireRequest(req)
	if err != nil {
		return nil, err
	}
	contentType, body, err := t.endpoint.Serve(op)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// CloseIdleConnections makes the transport a no-op closer so the owning
// client's release path works unchanged.
func (t *localTransport) CloseIdleConnections() {}

// decodeWireRequest reverses the wire encoding: it reconstructs the
// Operation from a request produced by buildRequest, whichever method was
// used.
func decodeWireRequest(req *http.Request) (*Operation, error) {
	contentType := req.Header.Get("Content-Type")
	var values url.Values
	var text string
	kind := KindQuery

	switch {
	case req.Method == http.MethodGet:
		values = req.URL.Query()

	case strings.HasPrefix(contentType, mimeForm):
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		values, err = url.ParseQuery(string(raw))
		if err != nil {
			return nil, err
		}

	case strings.HasPrefix(contentType, mimeSPARQLQuery),
		strings.HasPrefix(contentType, mimeSPARQLUpdate):
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		text = string(raw)
		values = req.URL.Query()
		if strings.HasPrefix(contentType, mimeSPARQLUpdate) {
			kind = KindUpdate
		}

	default:
		return nil, fmt.Errorf("sparqlx: unrecognized wire request (method %s, content type %q)",
			req.Method, contentType)
	}

	if text == "" {
		if q := values.Get("query"); q != "" {
			text = q
		} else if u := values.Get("update"); u != "" {
			text = u
			kind = KindUpdate
		} else {
			return nil, ErrEmptyOperation
		}
	}

	op := &Operation{
		Kind:    kind,
		Text:    text,
		Format:  req.Header.Get("Accept"),
		Version: values.Get("version"),
	}
	if kind == KindQuery {
		op.DefaultGraphs = values["default-graph-uri"]
		op.NamedGraphs = values["named-graph-uri"]
		op.queryType = DetectQueryType(text)
	} else {
		op.UsingGraphs = values["using-graph-uri"]
		op.UsingNamedGraphs = values["using-named-graph-uri"]
	}
	return op, nil
}
