package sparql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"
)

const xsdNS = "http://www.w3.org/2001/XMLSchema#"

// Binding maps a query's projected variable names to converted values.
// Every binding of a converted SELECT result carries exactly the projected
// variable set as keys; a variable left unbound in a row maps to nil.
//
// Values are either native Go values (int64, float64, bool, time.Time,
// string) for literals with a castable datatype, or RDF terms: rdf.IRI for
// IRIs, rdf.Blank for blank nodes, and rdf.Literal for language-tagged
// literals and datatypes with no native representation.
type Binding map[string]any

// Graph is an ordered collection of RDF triples parsed from a CONSTRUCT or
// DESCRIBE response.
type Graph struct {
	triples []rdf.Triple
}

// Len returns the number of triples in the graph.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the graph's triples in response order.
func (g *Graph) Triples() []rdf.Triple { return g.triples }

// Result is the converted value of a query response, tagged by query form.
type Result struct {
	queryType QueryType
	bindings  []Binding
	boolean   bool
	graph     *Graph
}

// Type returns the query form the result was converted for.
func (r *Result) Type() QueryType { return r.queryType }

// Bindings returns the converted SELECT bindings. It is nil unless the
// result belongs to a SELECT query.
func (r *Result) Bindings() []Binding { return r.bindings }

// Bool returns the ASK result. It is false unless the result belongs to an
// ASK query.
func (r *Result) Bool() bool { return r.boolean }

// Graph returns the converted CONSTRUCT or DESCRIBE graph. It is nil for
// other query forms.
func (r *Result) Graph() *Graph { return r.graph }

// rawResults mirrors the SPARQL Query Results JSON document.
type rawResults struct {
	Head *struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]rawTerm `json:"bindings"`
	} `json:"results"`
}

type rawTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

// convertBindings normalizes a SELECT results document: each output
// binding carries exactly the declared projection (head.vars) as keys, with
// variables the endpoint omitted (unbound or UNDEF) set to nil. Values are
// cast per their term type and datatype.
func convertBindings(body []byte) ([]Binding, error) {
	var doc rawResults
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	if doc.Head == nil || doc.Results == nil {
		return nil, fmt.Errorf("%w: missing head or results", ErrMalformedResults)
	}

	vars := doc.Head.Vars
	out := make([]Binding, 0, len(doc.Results.Bindings))
	for _, raw := range doc.Results.Bindings {
		b := make(Binding, len(vars))
		for _, v := range vars {
			term, ok := raw[v]
			if !ok {
				b[v] = nil
				continue
			}
			val, err := castTerm(term)
			if err != nil {
				return nil, fmt.Errorf("%w: variable %q: %v", ErrMalformedResults, v, err)
			}
			b[v] = val
		}
		out = append(out, b)
	}
	return out, nil
}

// convertBoolean extracts an ASK result. Only a JSON boolean is accepted.
func convertBoolean(body []byte) (bool, error) {
	var doc struct {
		Boolean *bool `json:"boolean"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	if doc.Boolean == nil {
		return false, fmt.Errorf("%w: missing boolean field", ErrMalformedResults)
	}
	return *doc.Boolean, nil
}

// convertGraph parses a CONSTRUCT/DESCRIBE response body in the named
// format into a Graph.
func convertGraph(body []byte, format string) (*Graph, error) {
	var triples []rdf.Triple
	var err error

	switch format {
	case "turtle":
		triples, err = decodeTriples(body, rdf.Turtle)
	case "ntriples":
		triples, err = decodeTriples(body, rdf.NTriples)
	case "xml", "rdfxml":
		triples, err = decodeTriples(body, rdf.RDFXML)
	case "nquads":
		triples, err = decodeQuads(body)
	case "json-ld":
		triples, err = decodeJSONLD(body)
	default:
		return nil, fmt.Errorf("%w: no graph parser for format %q", ErrUnexpectedContentType, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	return &Graph{triples: triples}, nil
}

func decodeTriples(body []byte, f rdf.Format) ([]rdf.Triple, error) {
	dec := rdf.NewTripleDecoder(bytes.NewReader(body), f)
	return dec.DecodeAll()
}

func decodeQuads(body []byte) ([]rdf.Triple, error) {
	dec := rdf.NewQuadDecoder(bytes.NewReader(body), rdf.NQuads)
	quads, err := dec.DecodeAll()
	if err != nil {
		return nil, err
	}
	triples := make([]rdf.Triple, len(quads))
	for i, q := range quads {
		triples[i] = q.Triple
	}
	return triples, nil
}

// decodeJSONLD normalizes a JSON-LD document to N-Quads and parses those.
func decodeJSONLD(body []byte) ([]rdf.Triple, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	res, err := ld.NewJsonLdProcessor().ToRDF(doc, opts)
	if err != nil {
		return nil, err
	}
	nquads, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected JSON-LD serialization type %T", res)
	}
	return decodeQuads([]byte(nquads))
}

// castTerm converts a raw JSON results term to its typed value.
func castTerm(t rawTerm) (any, error) {
	switch t.Type {
	case "uri":
		return rdf.NewIRI(t.Value)
	case "bnode":
		return rdf.NewBlank(t.Value)
	case "literal", "typed-literal":
		return castLiteral(t)
	default:
		return nil, fmt.Errorf("unknown term type %q", t.Type)
	}
}

// castLiteral applies datatype-aware casting: numeric, boolean and
// date/time literals become native Go values; language-tagged literals and
// datatypes without a faithful native representation (gYear, gYearMonth,
// unknown datatypes) stay rdf.Literal values.
func castLiteral(t rawTerm) (any, error) {
	if t.Lang != "" {
		return rdf.NewLangLiteral(t.Value, t.Lang)
	}
	dt := t.Datatype
	if dt == "" || dt == xsdNS+"string" {
		return t.Value, nil
	}
	if !strings.HasPrefix(dt, xsdNS) {
		return typedLiteral(t.Value, dt)
	}

	switch strings.TrimPrefix(dt, xsdNS) {
	case "integer", "int", "long", "short", "byte",
		"nonNegativeInteger", "nonPositiveInteger", "negativeInteger", "positiveInteger",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte":
		n, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s literal %q", dt, t.Value)
		}
		return n, nil
	case "decimal", "double", "float":
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s literal %q", dt, t.Value)
		}
		return f, nil
	case "boolean":
		switch t.Value {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean literal %q", t.Value)
	case "dateTime":
		return parseTimeLiteral(t.Value, time.RFC3339, "2006-01-02T15:04:05")
	case "date":
		return parseTimeLiteral(t.Value, "2006-01-02Z07:00", "2006-01-02")
	case "time":
		return parseTimeLiteral(t.Value, "15:04:05Z07:00", "15:04:05")
	default:
		// gYear, gYearMonth, duration and friends have no faithful native
		// representation; keep the typed literal.
		return typedLiteral(t.Value, dt)
	}
}

func typedLiteral(value, datatype string) (any, error) {
	iri, err := rdf.NewIRI(datatype)
	if err != nil {
		return nil, fmt.Errorf("invalid datatype IRI %q", datatype)
	}
	return rdf.NewTypedLiteral(value, iri), nil
}

func parseTimeLiteral(value string, layouts ...string) (any, error) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("invalid date/time literal %q", value)
}
