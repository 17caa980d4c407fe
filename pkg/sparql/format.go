package sparql

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Media types fixed by the SPARQL protocol.
const (
	mimeForm         = "application/x-www-form-urlencoded"
	mimeSPARQLQuery  = "application/sparql-query"
	mimeSPARQLUpdate = "application/sparql-update"
	mimeResultsJSON  = "application/sparql-results+json"
)

// bindingsFormats maps symbolic format names to MIME types for SELECT and
// ASK responses. graphFormats is the equivalent table for CONSTRUCT and
// DESCRIBE. The "xml" name deliberately appears in both tables with
// different MIME types: SPARQL results XML and RDF/XML are distinct
// formats disambiguated by query form, not by name.
var bindingsFormats = map[string]string{
	"json": mimeResultsJSON,
	"xml":  "application/sparql-results+xml",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
}

var graphFormats = map[string]string{
	"turtle":   "text/turtle",
	"xml":      "application/rdf+xml",
	"ntriples": "application/n-triples",
	"nquads":   "application/n-quads",
	"json-ld":  "application/ld+json",
}

// mimeForFormat resolves a symbolic response format name to the MIME type
// carried in the Accept header. Unknown names pass through as opaque MIME
// strings. An empty name selects the default for the query form: JSON
// results for SELECT/ASK, Turtle for CONSTRUCT/DESCRIBE.
func mimeForFormat(qt QueryType, name string) string {
	switch qt {
	case QueryConstruct, QueryDescribe:
		if name == "" {
			name = "turtle"
		}
		if mt, ok := graphFormats[name]; ok {
			return mt
		}
	default:
		if name == "" {
			name = "json"
		}
		if mt, ok := bindingsFormats[name]; ok {
			return mt
		}
	}
	return name
}

// negotiateAccept resolves the Accept MIME type for a query operation and
// enforces that converted SELECT/ASK calls use a JSON results format, since
// the converter only understands the JSON results document.
func negotiateAccept(op *Operation, convert bool) (string, error) {
	mt := mimeForFormat(op.queryType, op.Format)
	if convert && (op.queryType == QuerySelect || op.queryType == QueryAsk) {
		if mt != mimeResultsJSON && mt != "application/json" {
			return "", fmt.Errorf("%w: SELECT and ASK conversion requires a JSON results format, got %q",
				ErrFormatConversion, mt)
		}
	}
	return mt, nil
}

// responseMediaType extracts the media type of a response that must be
// converted. A missing or unparsable Content-Type is a negotiation error;
// raw (non-converting) calls never reach this check.
func responseMediaType(resp *http.Response) (string, error) {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return "", ErrMissingContentType
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedContentType, ct)
	}
	return strings.ToLower(mediaType), nil
}

// graphFormatForMediaType maps a response media type to a graph format
// name understood by the graph parser.
func graphFormatForMediaType(mediaType string) (string, bool) {
	for name, mt := range graphFormats {
		if mt == mediaType {
			return name, true
		}
	}
	// Common aliases seen in the wild.
	switch mediaType {
	case "application/x-turtle":
		return "turtle", true
	case "text/plain":
		return "ntriples", true
	case "application/json":
		return "json-ld", true
	}
	return "", false
}
