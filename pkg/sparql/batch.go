package sparql

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// Queries executes a batch of queries concurrently and converts each
// response. The returned slice matches the input order regardless of
// completion order. One operation's failure or cancellation never cancels
// its siblings: every operation runs to completion, the slice keeps the
// results that succeeded, and the first error is returned. Concurrency is
// bounded by the underlying HTTP client's connection limits.
func (c *Client) Queries(ctx context.Context, queries []string, opts ...QueryOption) ([]*Result, error) {
	results := make([]*Result, len(queries))
	var g errgroup.Group
	for i, query := range queries {
		g.Go(func() error {
			res, err := c.Query(ctx, query, opts...)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	return results, g.Wait()
}

// QueriesRaw is the unconverted variant of Queries. The caller owns every
// non-nil response body and must close it, including when an error is
// returned for a sibling.
func (c *Client) QueriesRaw(ctx context.Context, queries []string, opts ...QueryOption) ([]*http.Response, error) {
	responses := make([]*http.Response, len(queries))
	var g errgroup.Group
	for i, query := range queries {
		g.Go(func() error {
			resp, err := c.QueryRaw(ctx, query, opts...)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}
	return responses, g.Wait()
}

// Updates executes a batch of update operations concurrently. Sibling
// isolation and ordering follow Queries.
func (c *Client) Updates(ctx context.Context, updates []string, opts ...UpdateOption) error {
	var g errgroup.Group
	for i, update := range updates {
		g.Go(func() error {
			if err := c.Update(ctx, update, opts...); err != nil {
				return fmt.Errorf("update %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
