package sparql

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Method is the wire encoding used to dispatch an operation, per the
// SPARQL protocol. Queries may use any method; updates may not use GET.
type Method int

const (
	// MethodPostForm sends the operation and all parameters urlencoded in
	// the request body. This is the default for queries and updates.
	MethodPostForm Method = iota

	// MethodGet places the operation and parameters in the URL query
	// string. Queries only.
	MethodGet

	// MethodPostDirect sends the raw operation text as the request body
	// with the SPARQL media type; remaining parameters go in the URL
	// query string.
	MethodPostDirect
)

// String returns a human-readable method name.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPostDirect:
		return "direct POST"
	default:
		return "urlencoded POST"
	}
}

// ParseMethod maps a configuration string to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "post", "form", "urlencoded":
		return MethodPostForm, nil
	case "get":
		return MethodGet, nil
	case "direct", "post-direct":
		return MethodPostDirect, nil
	default:
		return 0, fmt.Errorf("unknown wire method %q", s)
	}
}

// buildRequest encodes an operation onto the wire. It validates the
// method/kind combination before any network activity and never emits
// empty optional parameters.
func buildRequest(ctx context.Context, endpoint, accept string, op *Operation) (*http.Request, error) {
	if strings.TrimSpace(op.Text) == "" {
		return nil, ErrEmptyOperation
	}
	if op.Kind == KindUpdate && op.Method == MethodGet {
		return nil, fmt.Errorf("%w: GET cannot carry an update", ErrMethodNotAllowed)
	}

	var req *http.Request
	var err error
	switch op.Method {
	case MethodGet:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = op.values().Encode()

	case MethodPostDirect:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
			strings.NewReader(op.Text))
		if err != nil {
			return nil, err
		}
		// The body is reserved for the operation text, so dataset and
		// version parameters travel in the URL query string.
		if params := op.params(); len(params) > 0 {
			req.URL.RawQuery = params.Encode()
		}
		if op.Kind == KindUpdate {
			req.Header.Set("Content-Type", mimeSPARQLUpdate)
		} else {
			req.Header.Set("Content-Type", mimeSPARQLQuery)
		}

	default: // MethodPostForm
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
			strings.NewReader(op.values().Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mimeForm)
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req, nil
}
