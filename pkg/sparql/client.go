// Package sparql implements the client side of the SPARQL 1.2 protocol:
// it encodes query and update operations onto the wire using one of the
// legal HTTP methods, negotiates response formats, and converts raw
// responses into typed, projection-stable result values.
//
// The package performs no query planning or execution and keeps no RDF
// store; it issues requests and interprets responses. RDF terms and graph
// parsing come from github.com/knakk/rdf.
package sparql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/sparqlx/internal/resultschema"
)

// DefaultTimeout is the request timeout of an owned HTTP client.
const DefaultTimeout = 30 * time.Second

// maxErrorBodyBytes caps how much of an error response is kept for the
// StatusError message.
const maxErrorBodyBytes = 4096

// Client issues SPARQL protocol operations against an endpoint.
//
// A Client either owns its underlying *http.Client (created at New,
// released by Close) or borrows one supplied via WithHTTPClient, in which
// case the caller keeps the responsibility for its lifecycle and Close
// only logs a warning. The underlying client is safe for concurrent use,
// so a Client may be shared across goroutines.
type Client struct {
	endpoint       string
	updateEndpoint string

	httpClient *http.Client
	ownsClient bool
	local      bool

	method  Method
	format  string
	strict  bool
	timeout time.Duration
	rt      http.RoundTripper
	logger  *slog.Logger

	closeOnce sync.Once
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient supplies a caller-managed HTTP client. The Client borrows
// it: Close never releases a borrowed handle.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTransport sets the transport of the owned HTTP client. Ignored when
// a client is supplied via WithHTTPClient.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.rt = rt
	}
}

// WithTimeout sets the request timeout of the owned HTTP client. Ignored
// when a client is supplied via WithHTTPClient; configure timeouts on the
// supplied client instead.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUpdateEndpoint sets a separate endpoint URL for update operations.
// Without it updates go to the query endpoint.
func WithUpdateEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.updateEndpoint = strings.TrimSpace(endpoint)
	}
}

// WithMethod sets the default wire method for all operations. Individual
// calls may override it with WithWireMethod/WithUpdateMethod.
func WithMethod(m Method) Option {
	return func(c *Client) {
		c.method = m
	}
}

// WithFormat sets the default response format name for queries.
func WithFormat(name string) Option {
	return func(c *Client) {
		c.format = name
	}
}

// WithStrictResults validates SELECT and ASK response bodies against the
// SPARQL results JSON schema before conversion.
func WithStrictResults() Option {
	return func(c *Client) {
		c.strict = true
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given query endpoint. Without
// WithHTTPClient the Client owns a new HTTP client and Close must be
// called to release it; with WithHTTPClient the handle is borrowed and
// stays the caller's responsibility.
func New(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("sparqlx: endpoint must not be empty")
	}
	c := &Client{
		endpoint: endpoint,
		method:   MethodPostForm,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.updateEndpoint == "" {
		c.updateEndpoint = c.endpoint
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout, Transport: c.rt}
		c.ownsClient = true
	}
	return c, nil
}

// Close releases the owned HTTP client exactly once, tearing down its idle
// connections. A borrowed client is never released; Close logs a warning
// as a reminder that the handle is still open and returns nil.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.ownsClient {
			c.httpClient.CloseIdleConnections()
			return
		}
		c.logger.Warn("http client is caller-managed and remains open",
			slog.String("endpoint", c.endpoint))
	})
	return nil
}

// QueryOption configures a single query operation.
type QueryOption func(*Operation)

// WithResponseFormat requests a response format by symbolic name ("json",
// "turtle", ...) or opaque MIME type.
func WithResponseFormat(name string) QueryOption {
	return func(op *Operation) { op.Format = name }
}

// WithVersion sets the protocol version parameter.
func WithVersion(v string) QueryOption {
	return func(op *Operation) { op.Version = v }
}

// WithDefaultGraphs sets the default-graph-uri parameters.
func WithDefaultGraphs(uris ...string) QueryOption {
	return func(op *Operation) { op.DefaultGraphs = uris }
}

// WithNamedGraphs sets the named-graph-uri parameters.
func WithNamedGraphs(uris ...string) QueryOption {
	return func(op *Operation) { op.NamedGraphs = uris }
}

// WithWireMethod overrides the client's wire method for one query.
func WithWireMethod(m Method) QueryOption {
	return func(op *Operation) { op.Method = m }
}

// UpdateOption configures a single update operation.
type UpdateOption func(*Operation)

// WithUsingGraphs sets the using-graph-uri parameters.
func WithUsingGraphs(uris ...string) UpdateOption {
	return func(op *Operation) { op.UsingGraphs = uris }
}

// WithUsingNamedGraphs sets the using-named-graph-uri parameters.
func WithUsingNamedGraphs(uris ...string) UpdateOption {
	return func(op *Operation) { op.UsingNamedGraphs = uris }
}

// WithUpdateVersion sets the protocol version parameter.
func WithUpdateVersion(v string) UpdateOption {
	return func(op *Operation) { op.Version = v }
}

// WithUpdateMethod overrides the client's wire method for one update.
// Updates permit only the POST methods.
func WithUpdateMethod(m Method) UpdateOption {
	return func(op *Operation) { op.Method = m }
}

func (c *Client) newQueryOperation(query string, opts []QueryOption) *Operation {
	op := &Operation{
		Kind:   KindQuery,
		Text:   query,
		Format: c.format,
		Method: c.method,
	}
	for _, opt := range opts {
		opt(op)
	}
	op.queryType = DetectQueryType(query)
	return op
}

func (c *Client) newUpdateOperation(update string, opts []UpdateOption) *Operation {
	op := &Operation{
		Kind:   KindUpdate,
		Text:   update,
		Method: c.method,
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// Query executes a query and converts the response per its query form:
// SELECT yields Bindings, ASK yields Bool, CONSTRUCT and DESCRIBE yield
// Graph. Use QueryRaw for the unconverted response.
func (c *Client) Query(ctx context.Context, query string, opts ...QueryOption) (*Result, error) {
	op := c.newQueryOperation(query, opts)
	if op.queryType == QueryUnknown {
		return nil, opErr("query", c.endpoint, ErrUnknownQueryType)
	}
	accept, err := negotiateAccept(op, true)
	if err != nil {
		return nil, opErr("query", c.endpoint, err)
	}

	resp, err := c.roundTrip(ctx, "query", c.endpoint, accept, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	mediaType, err := responseMediaType(resp)
	if err != nil {
		return nil, opErr("query", c.endpoint, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, opErr("query", c.endpoint, err)
	}
	return c.convert(op, mediaType, body)
}

// convert interprets a response body according to the operation's query
// form. Shared by the remote and in-process paths.
func (c *Client) convert(op *Operation, mediaType string, body []byte) (*Result, error) {
	switch op.queryType {
	case QuerySelect, QueryAsk:
		if mediaType != mimeResultsJSON && mediaType != "application/json" {
			return nil, opErr("query", c.endpoint,
				fmt.Errorf("%w: %q for %s conversion", ErrUnexpectedContentType, mediaType, op.queryType))
		}
		if c.strict {
			if err := resultschema.Validate(body); err != nil {
				return nil, opErr("query", c.endpoint,
					fmt.Errorf("%w: %v", ErrMalformedResults, err))
			}
		}
		if op.queryType == QueryAsk {
			b, err := convertBoolean(body)
			if err != nil {
				return nil, opErr("query", c.endpoint, err)
			}
			return &Result{queryType: QueryAsk, boolean: b}, nil
		}
		bindings, err := convertBindings(body)
		if err != nil {
			return nil, opErr("query", c.endpoint, err)
		}
		return &Result{queryType: QuerySelect, bindings: bindings}, nil

	default: // CONSTRUCT, DESCRIBE
		name, ok := graphFormatForMediaType(mediaType)
		if !ok {
			// The endpoint declared something outside the table; fall back
			// to the caller's requested format if that one is parseable.
			if _, known := graphFormats[op.Format]; known {
				name = op.Format
			} else {
				return nil, opErr("query", c.endpoint,
					fmt.Errorf("%w: %q for graph conversion", ErrUnexpectedContentType, mediaType))
			}
		}
		g, err := convertGraph(body, name)
		if err != nil {
			return nil, opErr("query", c.endpoint, err)
		}
		return &Result{queryType: op.queryType, graph: g}, nil
	}
}

// QueryRaw executes a query and returns the unconverted response. The
// caller owns the response body and must close it. No Content-Type
// requirement applies to raw calls.
func (c *Client) QueryRaw(ctx context.Context, query string, opts ...QueryOption) (*http.Response, error) {
	op := c.newQueryOperation(query, opts)
	accept, err := negotiateAccept(op, false)
	if err != nil {
		return nil, opErr("query", c.endpoint, err)
	}
	return c.roundTrip(ctx, "query", c.endpoint, accept, op)
}

// Select executes a SELECT query and returns its normalized bindings.
func (c *Client) Select(ctx context.Context, query string, opts ...QueryOption) ([]Binding, error) {
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	if res.Type() != QuerySelect {
		return nil, opErr("query", c.endpoint,
			fmt.Errorf("expected a SELECT query, detected %s", res.Type()))
	}
	return res.Bindings(), nil
}

// Ask executes an ASK query and returns its boolean result.
func (c *Client) Ask(ctx context.Context, query string, opts ...QueryOption) (bool, error) {
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return false, err
	}
	if res.Type() != QueryAsk {
		return false, opErr("query", c.endpoint,
			fmt.Errorf("expected an ASK query, detected %s", res.Type()))
	}
	return res.Bool(), nil
}

// Construct executes a CONSTRUCT or DESCRIBE query and returns the parsed
// graph.
func (c *Client) Construct(ctx context.Context, query string, opts ...QueryOption) (*Graph, error) {
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	if res.Type() != QueryConstruct && res.Type() != QueryDescribe {
		return nil, opErr("query", c.endpoint,
			fmt.Errorf("expected a CONSTRUCT or DESCRIBE query, detected %s", res.Type()))
	}
	return res.Graph(), nil
}

// Update executes an update operation. The response body is drained and
// closed; a non-2xx status surfaces as a StatusError.
func (c *Client) Update(ctx context.Context, update string, opts ...UpdateOption) error {
	resp, err := c.UpdateRaw(ctx, update, opts...)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// UpdateRaw executes an update operation and returns the unconverted
// response. The caller owns the response body and must close it.
func (c *Client) UpdateRaw(ctx context.Context, update string, opts ...UpdateOption) (*http.Response, error) {
	op := c.newUpdateOperation(update, opts)
	return c.roundTrip(ctx, "update", c.updateEndpoint, "", op)
}

// roundTrip builds the wire request, sends it and checks the status.
// Configuration errors surface before any network activity; transport
// errors are passed through unmodified inside an OpError.
func (c *Client) roundTrip(ctx context.Context, opName, endpoint, accept string, op *Operation) (*http.Response, error) {
	req, err := buildRequest(ctx, endpoint, accept, op)
	if err != nil {
		return nil, opErr(opName, endpoint, err)
	}

	requestID := uuid.NewString()
	start := time.Now()
	c.logger.Debug("sparql request",
		slog.String("request_id", requestID),
		slog.String("op", opName),
		slog.String("method", req.Method),
		slog.String("wire_method", op.Method.String()),
		slog.String("url", endpoint),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("sparql request failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, opErr(opName, endpoint, err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		c.logger.Debug("sparql request returned error status",
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, opErr(opName, endpoint,
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	c.logger.Debug("sparql response",
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}
