// Package sparqltest provides endpoint doubles for testing code built on
// the sparql client: canned-response HTTP servers and in-process Endpoint
// implementations that record the operations they receive.
package sparqltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/usestring/sparqlx/pkg/sparql"
)

// Term is a raw term of a canned SPARQL results JSON document.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// IRI builds a uri term.
func IRI(value string) Term { return Term{Type: "uri", Value: value} }

// Lit builds a plain literal term.
func Lit(value string) Term { return Term{Type: "literal", Value: value} }

// TypedLit builds a typed literal term.
func TypedLit(value, datatype string) Term {
	return Term{Type: "literal", Value: value, Datatype: datatype}
}

// BNode builds a blank node term.
func BNode(id string) Term { return Term{Type: "bnode", Value: id} }

// SelectJSON builds a SPARQL results JSON document with the given
// projection and rows. Rows may omit variables to simulate unbound/UNDEF
// values.
func SelectJSON(vars []string, rows ...map[string]Term) []byte {
	if vars == nil {
		vars = []string{}
	}
	bindings := make([]map[string]Term, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			row = map[string]Term{}
		}
		bindings = append(bindings, row)
	}
	doc := map[string]any{
		"head":    map[string]any{"vars": vars},
		"results": map[string]any{"bindings": bindings},
	}
	body, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return body
}

// BooleanJSON builds an ASK results JSON document.
func BooleanJSON(value bool) []byte {
	body, err := json.Marshal(map[string]any{"head": map[string]any{}, "boolean": value})
	if err != nil {
		panic(err)
	}
	return body
}

// NewServer starts an httptest server answering every request with the
// given status, content type and body. Callers must Close it.
func NewServer(status int, contentType string, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

// StaticEndpoint is an in-process Endpoint answering every operation with
// a fixed response, recording the decoded operations it receives.
type StaticEndpoint struct {
	ContentType string
	Body        []byte
	Err         error

	mu  sync.Mutex
	ops []*sparql.Operation
}

// Serve implements sparql.Endpoint.
func (e *StaticEndpoint) Serve(op *sparql.Operation) (string, []byte, error) {
	e.mu.Lock()
	e.ops = append(e.ops, op)
	e.mu.Unlock()
	if e.Err != nil {
		return "", nil, e.Err
	}
	return e.ContentType, e.Body, nil
}

// Operations returns the operations served so far, in arrival order.
func (e *StaticEndpoint) Operations() []*sparql.Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*sparql.Operation, len(e.ops))
	copy(out, e.ops)
	return out
}
