package sparql

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMimeForFormat(t *testing.T) {
	tests := []struct {
		name   string
		qt     QueryType
		format string
		want   string
	}{
		{"select default", QuerySelect, "", mimeResultsJSON},
		{"ask default", QueryAsk, "", mimeResultsJSON},
		{"construct default", QueryConstruct, "", "text/turtle"},
		{"describe default", QueryDescribe, "", "text/turtle"},
		{"select csv", QuerySelect, "csv", "text/csv"},
		{"select tsv", QuerySelect, "tsv", "text/tab-separated-values"},
		{"construct ntriples", QueryConstruct, "ntriples", "application/n-triples"},
		{"construct json-ld", QueryConstruct, "json-ld", "application/ld+json"},
		// "xml" is two different formats depending on the query form.
		{"select xml", QuerySelect, "xml", "application/sparql-results+xml"},
		{"construct xml", QueryConstruct, "xml", "application/rdf+xml"},
		// Unknown names pass through as opaque MIME strings.
		{"opaque mime", QuerySelect, "application/vnd.custom", "application/vnd.custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mimeForFormat(tt.qt, tt.format))
		})
	}
}

func TestNegotiateAccept(t *testing.T) {
	sel := &Operation{Kind: KindQuery, Text: "SELECT", queryType: QuerySelect, Format: "csv"}

	// Converted SELECT calls must use a JSON results format.
	_, err := negotiateAccept(sel, true)
	assert.ErrorIs(t, err, ErrFormatConversion)

	// Raw calls may use any format.
	mt, err := negotiateAccept(sel, false)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", mt)

	// Graph queries convert from any graph format.
	con := &Operation{Kind: KindQuery, Text: "CONSTRUCT", queryType: QueryConstruct, Format: "ntriples"}
	mt, err = negotiateAccept(con, true)
	require.NoError(t, err)
	assert.Equal(t, "application/n-triples", mt)
}

func TestResponseMediaType(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	_, err := responseMediaType(resp)
	assert.ErrorIs(t, err, ErrMissingContentType)

	resp.Header.Set("Content-Type", "Application/SPARQL-Results+JSON; charset=utf-8")
	mt, err := responseMediaType(resp)
	require.NoError(t, err)
	assert.Equal(t, mimeResultsJSON, mt)

	resp.Header.Set("Content-Type", ";")
	_, err = responseMediaType(resp)
	assert.ErrorIs(t, err, ErrUnexpectedContentType)
}

func TestGraphFormatForMediaType(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
		ok        bool
	}{
		{"text/turtle", "turtle", true},
		{"application/rdf+xml", "xml", true},
		{"application/n-triples", "ntriples", true},
		{"application/n-quads", "nquads", true},
		{"application/ld+json", "json-ld", true},
		{"application/x-turtle", "turtle", true},
		{"text/plain", "ntriples", true},
		{"application/json", "json-ld", true},
		{"text/csv", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			got, ok := graphFormatForMediaType(tt.mediaType)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
