package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/sparqlx/pkg/sparql"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Updates bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Run several operations concurrently",
		Long: `Run the operations in the given files concurrently against one
endpoint. Results print in argument order regardless of completion
order; a failing operation does not cancel its siblings.

Example:
  sparqlx batch -p wikidata q1.rq q2.rq q3.rq
  sparqlx batch --updates -e http://localhost:3030/ds/update load1.ru load2.ru`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Updates, "updates", false, "treat the files as SPARQL updates")

	return cmd
}

func runBatch(cmd *cobra.Command, opts *BatchOptions, files []string) error {
	texts := make([]string, 0, len(files))
	for _, f := range files {
		text, err := readOperationText("@"+f, cmd.InOrStdin())
		if err != nil {
			return err
		}
		texts = append(texts, text)
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

	if opts.Updates {
		if err := client.Updates(ctx, texts); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil
	}

	results, batchErr := client.Queries(ctx, texts, opts.queryOptions()...)
	for i, result := range results {
		fmt.Fprintf(out, "# %s\n", files[i])
		if result == nil {
			fmt.Fprintln(out, "(failed)")
			continue
		}
		if err := printResult(out, result); err != nil {
			return err
		}
	}
	return batchErr
}
