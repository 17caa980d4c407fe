package sparql_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/sparqlx/pkg/sparql"
	"github.com/usestring/sparqlx/pkg/sparql/sparqltest"
)

// echoServer answers every query with a single binding holding the query
// text, so tests can match responses back to requests.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("query")
		w.Header().Set("Content-Type", resultsJSON)
		_, _ = w.Write(sparqltest.SelectJSON(
			[]string{"q"},
			map[string]sparqltest.Term{"q": sparqltest.Lit(query)},
		))
	}))
}

// Results arrive in input order regardless of completion order.
func TestQueriesOrder(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	client, err := sparql.New(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	queries := make([]string, 20)
	for i := range queries {
		queries[i] = fmt.Sprintf("SELECT ?q WHERE {} # %d", i)
	}

	results, err := client.Queries(context.Background(), queries)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, res := range results {
		require.NotNil(t, res)
		require.Len(t, res.Bindings(), 1)
		assert.Equal(t, queries[i], res.Bindings()[0]["q"])
	}
}

// One operation's failure never cancels its siblings: every operation runs
// to completion and the successes keep their results.
func TestQueriesSiblingIsolation(t *testing.T) {
	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		require.NoError(t, r.ParseForm())
		if strings.Contains(r.PostForm.Get("query"), "fail") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", resultsJSON)
		_, _ = w.Write(sparqltest.BooleanJSON(true))
	}))
	defer srv.Close()

	client, err := sparql.New(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	queries := []string{
		"ASK { } # ok 0",
		"ASK { } # fail",
		"ASK { } # ok 2",
	}
	results, err := client.Queries(context.Background(), queries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query 1")

	var statusErr *sparql.StatusError
	assert.ErrorAs(t, err, &statusErr)

	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
	assert.Equal(t, int32(3), served.Load(), "siblings must not be cancelled")
}

func TestUpdates(t *testing.T) {
	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := sparql.New(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	err = client.Updates(context.Background(), []string{
		"INSERT DATA { <urn:a> <urn:b> <urn:c> }",
		"INSERT DATA { <urn:d> <urn:e> <urn:f> }",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), served.Load())
}

func TestQueriesRaw(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	client, err := sparql.New(srv.URL)
	require.NoError(t, err)
	defer client.Close()

	responses, err := client.QueriesRaw(context.Background(), []string{
		"SELECT ?q WHERE {} # a",
		"SELECT ?q WHERE {} # b",
	})
	require.NoError(t, err)
	require.Len(t, responses, 2)
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}
}
