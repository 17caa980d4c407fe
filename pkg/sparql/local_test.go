package sparql_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/sparqlx/pkg/sparql"
	"github.com/usestring/sparqlx/pkg/sparql/sparqltest"
)

func TestLocalSelect(t *testing.T) {
	endpoint := &sparqltest.StaticEndpoint{
		ContentType: resultsJSON,
		Body: sparqltest.SelectJSON(
			[]string{"s"},
			map[string]sparqltest.Term{"s": sparqltest.IRI("http://example.org/x")},
		),
	}
	client, err := sparql.NewLocal(endpoint)
	require.NoError(t, err)
	defer client.Close()

	rows, err := client.Select(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }",
		sparql.WithDefaultGraphs("http://example.org/g"),
		sparql.WithVersion("1.2"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// The operation survives the wire round trip intact.
	ops := endpoint.Operations()
	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, sparql.KindQuery, op.Kind)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", op.Text)
	assert.Equal(t, sparql.QuerySelect, op.QueryType())
	assert.Equal(t, []string{"http://example.org/g"}, op.DefaultGraphs)
	assert.Equal(t, "1.2", op.Version)
	assert.Equal(t, resultsJSON, op.Format)
}

func TestLocalUpdate(t *testing.T) {
	endpoint := &sparqltest.StaticEndpoint{ContentType: "text/plain", Body: []byte("ok")}
	client, err := sparql.NewLocal(endpoint)
	require.NoError(t, err)
	defer client.Close()

	err = client.Update(context.Background(), "DELETE WHERE { ?s ?p ?o }",
		sparql.WithUsingNamedGraphs("http://example.org/n"))
	require.NoError(t, err)

	ops := endpoint.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, sparql.KindUpdate, ops[0].Kind)
	assert.Equal(t, "DELETE WHERE { ?s ?p ?o }", ops[0].Text)
	assert.Equal(t, []string{"http://example.org/n"}, ops[0].UsingNamedGraphs)
}

// Every wire method must decode back to the same operation.
func TestLocalWireMethods(t *testing.T) {
	for _, m := range []sparql.Method{sparql.MethodPostForm, sparql.MethodGet, sparql.MethodPostDirect} {
		t.Run(m.String(), func(t *testing.T) {
			endpoint := &sparqltest.StaticEndpoint{
				ContentType: resultsJSON,
				Body:        sparqltest.BooleanJSON(true),
			}
			client, err := sparql.NewLocal(endpoint, sparql.WithMethod(m))
			require.NoError(t, err)
			defer client.Close()

			got, err := client.Ask(context.Background(), "ASK { ?s ?p ?o }",
				sparql.WithNamedGraphs("http://example.org/n"))
			require.NoError(t, err)
			assert.True(t, got)

			ops := endpoint.Operations()
			require.Len(t, ops, 1)
			assert.Equal(t, "ASK { ?s ?p ?o }", ops[0].Text)
			assert.Equal(t, sparql.QueryAsk, ops[0].QueryType())
			assert.Equal(t, []string{"http://example.org/n"}, ops[0].NamedGraphs)
		})
	}
}

func TestLocalEndpointError(t *testing.T) {
	boom := errors.New("graph unavailable")
	client, err := sparql.NewLocal(&sparqltest.StaticEndpoint{Err: boom})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Query(context.Background(), "SELECT * WHERE {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph unavailable")
}

func TestLocalStreamingRejected(t *testing.T) {
	client, err := sparql.NewLocal(&sparqltest.StaticEndpoint{})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.QueryStream(context.Background(), "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }")
	assert.ErrorIs(t, err, sparql.ErrStreamingUnsupported)
}

func TestLocalRejectsBorrowedClient(t *testing.T) {
	_, err := sparql.NewLocal(&sparqltest.StaticEndpoint{},
		sparql.WithHTTPClient(&http.Client{}))
	assert.Error(t, err)
}

func TestLocalEndpointFunc(t *testing.T) {
	client, err := sparql.NewLocal(sparql.EndpointFunc(
		func(op *sparql.Operation) (string, []byte, error) {
			return resultsJSON, sparqltest.BooleanJSON(op.QueryType() == sparql.QueryAsk), nil
		}))
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Ask(context.Background(), "ASK {}")
	require.NoError(t, err)
	assert.True(t, got)
}
