// Package cli implements the sparqlx command line interface.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/usestring/sparqlx/internal/config"
	"github.com/usestring/sparqlx/pkg/sparql"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Endpoint       string
	UpdateEndpoint string
	Profile        string
	Format         string
	Method         string
	Version        string
	TimeoutMs      int
	DefaultGraphs  []string
	NamedGraphs    []string

	cfg *config.Config
}

// NewRootCommand creates the root command for the sparqlx CLI.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{cfg: cfg}

	cmd := &cobra.Command{
		Use:   "sparqlx",
		Short: "SPARQL protocol client",
		Long: `sparqlx runs SPARQL queries and updates against HTTP endpoints.

Endpoints are addressed with --endpoint or by name with --profile
(profiles live in a YAML file, see SPARQLX_PROFILES).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Endpoint, "endpoint", "e", cfg.Endpoint, "SPARQL endpoint URL")
	cmd.PersistentFlags().StringVar(&opts.UpdateEndpoint, "update-endpoint", cfg.UpdateEndpoint, "separate endpoint URL for updates")
	cmd.PersistentFlags().StringVarP(&opts.Profile, "profile", "p", "", "endpoint profile name")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "response format (json|xml|csv|tsv|turtle|ntriples|nquads|json-ld)")
	cmd.PersistentFlags().StringVar(&opts.Method, "method", cfg.Method, "wire method (get|post|post-direct)")
	cmd.PersistentFlags().StringVar(&opts.Version, "protocol-version", cfg.Version, "protocol version parameter (e.g. 1.2)")
	cmd.PersistentFlags().IntVar(&opts.TimeoutMs, "timeout", int(cfg.Timeout/time.Millisecond), "request timeout in milliseconds")
	cmd.PersistentFlags().StringArrayVar(&opts.DefaultGraphs, "default-graph", nil, "default graph URI (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&opts.NamedGraphs, "named-graph", nil, "named graph URI (repeatable)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))

	return cmd
}

// resolve merges profile settings under the flag values and returns the
// endpoints plus client options ready for sparql.New.
func (o *RootOptions) resolve() (string, []sparql.Option, error) {
	endpoint := o.Endpoint
	updateEndpoint := o.UpdateEndpoint
	format := o.Format
	method := o.Method
	version := o.Version
	defaultGraphs := o.DefaultGraphs
	namedGraphs := o.NamedGraphs

	if o.Profile != "" {
		profiles, err := config.LoadProfiles(o.cfg.ProfilesFile)
		if err != nil {
			return "", nil, err
		}
		prof, ok := profiles[o.Profile]
		if !ok {
			return "", nil, fmt.Errorf("unknown profile %q (profiles file: %s)", o.Profile, o.cfg.ProfilesFile)
		}
		if endpoint == "" {
			endpoint = prof.Endpoint
		}
		if updateEndpoint == "" {
			updateEndpoint = prof.UpdateEndpoint
		}
		if format == "" {
			format = prof.Format
		}
		if o.Method == "post" && prof.Method != "" {
			method = prof.Method
		}
		if version == "" {
			version = prof.Version
		}
		if len(defaultGraphs) == 0 {
			defaultGraphs = prof.DefaultGraphs
		}
		if len(namedGraphs) == 0 {
			namedGraphs = prof.NamedGraphs
		}
	}
	if endpoint == "" {
		return "", nil, fmt.Errorf("no endpoint: pass --endpoint, --profile, or set SPARQLX_ENDPOINT")
	}

	m, err := sparql.ParseMethod(method)
	if err != nil {
		return "", nil, err
	}

	clientOpts := []sparql.Option{
		sparql.WithMethod(m),
		sparql.WithTimeout(time.Duration(o.TimeoutMs) * time.Millisecond),
	}
	if updateEndpoint != "" {
		clientOpts = append(clientOpts, sparql.WithUpdateEndpoint(updateEndpoint))
	}
	if format != "" {
		clientOpts = append(clientOpts, sparql.WithFormat(format))
	}

	o.Format = format
	o.Version = version
	o.DefaultGraphs = defaultGraphs
	o.NamedGraphs = namedGraphs
	return endpoint, clientOpts, nil
}

// queryOptions builds the per-operation options shared by query and batch.
func (o *RootOptions) queryOptions() []sparql.QueryOption {
	var qopts []sparql.QueryOption
	if o.Version != "" {
		qopts = append(qopts, sparql.WithVersion(o.Version))
	}
	if len(o.DefaultGraphs) > 0 {
		qopts = append(qopts, sparql.WithDefaultGraphs(o.DefaultGraphs...))
	}
	if len(o.NamedGraphs) > 0 {
		qopts = append(qopts, sparql.WithNamedGraphs(o.NamedGraphs...))
	}
	return qopts
}
