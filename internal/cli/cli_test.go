package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/sparqlx/internal/config"
)

func TestReadOperationText(t *testing.T) {
	got, err := readOperationText("SELECT * WHERE {}", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE {}", got)

	got, err = readOperationText("-", strings.NewReader("ASK {}"))
	require.NoError(t, err)
	assert.Equal(t, "ASK {}", got)

	path := filepath.Join(t.TempDir(), "q.rq")
	require.NoError(t, os.WriteFile(path, []byte("DESCRIBE <urn:x>"), 0644))
	got, err = readOperationText("@"+path, nil)
	require.NoError(t, err)
	assert.Equal(t, "DESCRIBE <urn:x>", got)

	_, err = readOperationText("@"+filepath.Join(t.TempDir(), "missing.rq"), nil)
	assert.Error(t, err)
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, int64(7), displayValue(int64(7)))
	assert.Equal(t, "x", displayValue("x"))
	assert.Nil(t, displayValue(nil))
	assert.Equal(t, "2021-06-01T12:30:00Z",
		displayValue(time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC)))

	iri, err := rdf.NewIRI("http://example.org/a")
	require.NoError(t, err)
	assert.Equal(t, "<http://example.org/a>", displayValue(iri))
}

func TestResolveProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wikidata:
  endpoint: https://query.wikidata.org/sparql
  method: get
  version: "1.2"
`), 0644))

	opts := &RootOptions{
		Profile:   "wikidata",
		Method:    "post",
		TimeoutMs: 1000,
		cfg:       &config.Config{ProfilesFile: path},
	}
	endpoint, clientOpts, err := opts.resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://query.wikidata.org/sparql", endpoint)
	assert.NotEmpty(t, clientOpts)
	assert.Equal(t, "1.2", opts.Version)

	opts = &RootOptions{Profile: "nope", Method: "post", cfg: &config.Config{ProfilesFile: path}}
	_, _, err = opts.resolve()
	assert.ErrorContains(t, err, "unknown profile")
}

func TestResolveNoEndpoint(t *testing.T) {
	opts := &RootOptions{Method: "post", cfg: &config.Config{}}
	_, _, err := opts.resolve()
	assert.ErrorContains(t, err, "no endpoint")
}

func TestResolveFlagsWinOverProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
local:
  endpoint: http://localhost:3030/ds/query
  format: xml
`), 0644))

	opts := &RootOptions{
		Endpoint: "http://other:3030/ds/query",
		Profile:  "local",
		Format:   "json",
		Method:   "post",
		cfg:      &config.Config{ProfilesFile: path},
	}
	endpoint, _, err := opts.resolve()
	require.NoError(t, err)
	assert.Equal(t, "http://other:3030/ds/query", endpoint)
	assert.Equal(t, "json", opts.Format)
}
