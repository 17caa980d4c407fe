// Package jsonfilter applies JQ expressions to raw SPARQL result bodies.
// Compiled programs are kept in an LRU cache so repeated expressions (batch
// runs, watch loops) compile once.
package jsonfilter

import (
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/gojq"
)

// DefaultCacheSize bounds the compiled-program cache.
const DefaultCacheSize = 64

// Filter evaluates JQ expressions against JSON documents.
type Filter struct {
	programs *lru.Cache[string, *gojq.Code]
}

// New creates a Filter with a compiled-program cache of the given size.
// A non-positive size falls back to DefaultCacheSize.
func New(size int) (*Filter, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *gojq.Code](size)
	if err != nil {
		return nil, err
	}
	return &Filter{programs: cache}, nil
}

// Apply runs expression against the JSON document data and returns the
// produced values in order. Expression runtime errors fail the whole call.
func (f *Filter) Apply(data []byte, expression string) ([]any, error) {
	code, err := f.compile(expression)
	if err != nil {
		return nil, err
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}

	var values []any
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq evaluation: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (f *Filter) compile(expression string) (*gojq.Code, error) {
	if code, ok := f.programs.Get(expression); ok {
		return code, nil
	}
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}
	f.programs.Add(expression, code)
	return code, nil
}
