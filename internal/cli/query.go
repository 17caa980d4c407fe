package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knakk/rdf"
	"github.com/spf13/cobra"

	"github.com/usestring/sparqlx/internal/jsonfilter"
	"github.com/usestring/sparqlx/pkg/sparql"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Raw        bool
	JQ         string
	Stream     bool
	ChunkLines int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sparql|@file|->",
		Short: "Run a SPARQL query",
		Long: `Run a SPARQL query against an endpoint.

The query is taken from the argument, from a file with @path, or from
stdin with -. SELECT and ASK results print as JSON; CONSTRUCT and
DESCRIBE results print as N-Triples unless --raw is set.

Example:
  sparqlx query -e https://dbpedia.org/sparql 'SELECT * WHERE { ?s ?p ?o } LIMIT 5'
  sparqlx query -p wikidata @query.rq --jq '.[] | .item'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "write the response body verbatim")
	cmd.Flags().StringVar(&opts.JQ, "jq", "", "jq expression applied to the JSON response")
	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "stream the response body without buffering")
	cmd.Flags().IntVar(&opts.ChunkLines, "chunk-lines", 0, "with --stream, parse N-Triples/N-Quads in batches of N statements")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, arg string) error {
	text, err := readOperationText(arg, cmd.InOrStdin())
	if err != nil {
		return err
	}
	endpoint, clientOpts, err := opts.resolve()
	if err != nil {
		return err
	}
	client, err := sparql.New(endpoint, clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	qopts := opts.queryOptions()

	switch {
	case opts.Stream:
		return streamQuery(cmd, opts, client, text, qopts)

	case opts.JQ != "":
		body, err := readRawQuery(ctx, client, text, qopts)
		if err != nil {
			return err
		}
		filter, err := jsonfilter.New(opts.cfg.JQCacheSize)
		if err != nil {
			return err
		}
		values, err := filter.Apply(body, opts.JQ)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		for _, v := range values {
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil

	case opts.Raw:
		body, err := readRawQuery(ctx, client, text, qopts)
		if err != nil {
			return err
		}
		_, err = out.Write(body)
		return err

	default:
		result, err := client.Query(ctx, text, qopts...)
		if err != nil {
			return err
		}
		return printResult(out, result)
	}
}

func streamQuery(cmd *cobra.Command, opts *QueryOptions, client *sparql.Client, text string, qopts []sparql.QueryOption) error {
	stream, err := client.QueryStream(cmd.Context(), text, qopts...)
	if err != nil {
		return err
	}
	defer stream.Close()

	out := cmd.OutOrStdout()
	if opts.ChunkLines > 0 {
		for g, err := range stream.Graphs(opts.ChunkLines) {
			if err != nil {
				return err
			}
			if err := printGraph(out, g); err != nil {
				return err
			}
		}
		return nil
	}
	_, err = io.Copy(out, stream)
	return err
}

func readRawQuery(ctx context.Context, client *sparql.Client, text string, qopts []sparql.QueryOption) ([]byte, error) {
	resp, err := client.QueryRaw(ctx, text, qopts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// printResult writes a converted query result: SELECT rows as a JSON array,
// ASK as true/false, graphs as N-Triples.
func printResult(w io.Writer, result *sparql.Result) error {
	switch result.Type() {
	case sparql.QueryAsk:
		_, err := fmt.Fprintf(w, "%t\n", result.Bool())
		return err
	case sparql.QuerySelect:
		rows := make([]map[string]any, 0, len(result.Bindings()))
		for _, b := range result.Bindings() {
			row := make(map[string]any, len(b))
			for name, v := range b {
				row[name] = displayValue(v)
			}
			rows = append(rows, row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return printGraph(w, result.Graph())
	}
}

func printGraph(w io.Writer, g *sparql.Graph) error {
	for _, t := range g.Triples() {
		if _, err := io.WriteString(w, t.Serialize(rdf.NTriples)); err != nil {
			return err
		}
	}
	return nil
}

// displayValue renders a binding value for JSON output. Cast scalars pass
// through; RDF terms keep their N-Triples spelling.
func displayValue(v any) any {
	switch t := v.(type) {
	case nil, bool, int64, float64, string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case rdf.Term:
		return t.Serialize(rdf.NTriples)
	default:
		return fmt.Sprint(t)
	}
}

// readOperationText resolves the operation argument: literal text, @file,
// or - for stdin.
func readOperationText(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(raw), nil
	case strings.HasPrefix(arg, "@"):
		raw, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return arg, nil
	}
}
