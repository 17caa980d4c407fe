// Package resultschema validates SPARQL results JSON documents against the
// results document schema before conversion, for clients running in strict
// mode.
package resultschema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema.json
var schemaJSON []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// printer localizes validation error messages.
var printer = message.NewPrinter(language.English)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parsing embedded schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sparql-results.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("sparql-results.json")
	})
	return compiled, compileErr
}

// Validate checks that body is a well-formed SPARQL results JSON document.
// The returned error aggregates the leaf validation failures.
func Validate(body []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("results document invalid: %s", strings.Join(leafMessages(ve), "; "))
	}
	return err
}

// leafMessages collects the leaf errors (those without causes) with their
// instance paths.
func leafMessages(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if len(err.InstanceLocation) > 0 {
			return []string{fmt.Sprintf("/%s: %s", strings.Join(err.InstanceLocation, "/"), msg)}
		}
		return []string{msg}
	}
	var out []string
	for _, cause := range err.Causes {
		out = append(out, leafMessages(cause)...)
	}
	return out
}
