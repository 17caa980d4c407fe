package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/sparqlx/pkg/sparql"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	UsingGraphs      []string
	UsingNamedGraphs []string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <sparql|@file|->",
		Short: "Run a SPARQL update",
		Long: `Run a SPARQL update against an endpoint.

The update text is taken from the argument, from a file with @path, or
from stdin with -. Updates always travel over POST.

Example:
  sparqlx update -e http://localhost:3030/ds/update 'INSERT DATA { <urn:a> <urn:b> <urn:c> }'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&opts.UsingGraphs, "using-graph", nil, "using graph URI (repeatable)")
	cmd.Flags().StringArrayVar(&opts.UsingNamedGraphs, "using-named-graph", nil, "using named graph URI (repeatable)")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions, arg string) error {
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

	uopts := opts.updateOptions()
	if err := client.Update(cmd.Context(), text, uopts...); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func (o *UpdateOptions) updateOptions() []sparql.UpdateOption {
	var uopts []sparql.UpdateOption
	if o.Version != "" {
		uopts = append(uopts, sparql.WithUpdateVersion(o.Version))
	}
	if len(o.UsingGraphs) > 0 {
		uopts = append(uopts, sparql.WithUsingGraphs(o.UsingGraphs...))
	}
	if len(o.UsingNamedGraphs) > 0 {
		uopts = append(uopts, sparql.WithUsingNamedGraphs(o.UsingNamedGraphs...))
	}
	return uopts
}
