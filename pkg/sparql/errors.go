package sparql

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure categories. Configuration errors are
// raised before any request is sent; transport errors are surfaced
// unmodified; negotiation errors concern the response Content-Type;
// conversion errors concern the response body shape.
var (
	// ErrMethodNotAllowed indicates an illegal wire method for the
	// operation kind (for example GET for an update).
	ErrMethodNotAllowed = errors.New("sparqlx: wire method not allowed for operation kind")

	// ErrEmptyOperation indicates an empty query or update string.
	ErrEmptyOperation = errors.New("sparqlx: empty operation string")

	// ErrUnknownQueryType indicates the query form could not be detected,
	// so no converter can be chosen.
	ErrUnknownQueryType = errors.New("sparqlx: cannot detect query form")

	// ErrFormatConversion indicates a response format that cannot be
	// converted (SELECT and ASK conversion requires a JSON results format).
	ErrFormatConversion = errors.New("sparqlx: response format not convertible")

	// ErrStreamingUnsupported indicates streaming was requested on a
	// client whose transport cannot stream (the in-process graph target).
	ErrStreamingUnsupported = errors.New("sparqlx: streaming not available for this client")

	// ErrMissingContentType indicates a response without a Content-Type
	// header where conversion was requested.
	ErrMissingContentType = errors.New("sparqlx: response has no Content-Type")

	// ErrUnexpectedContentType indicates a response Content-Type that does
	// not match any format the converter understands.
	ErrUnexpectedContentType = errors.New("sparqlx: unexpected response Content-Type")

	// ErrMalformedResults indicates a response body that does not match
	// the expected shape for its query form.
	ErrMalformedResults = errors.New("sparqlx: malformed results document")
)

// OpError wraps a failure with the operation and endpoint it belongs to.
// Use errors.Is with the sentinels above, or errors.As with *StatusError,
// to inspect the cause.
type OpError struct {
	// Op is the failed operation: "query", "update", "stream".
	Op string

	// Endpoint is the target endpoint URL.
	Endpoint string

	// Err is the underlying error.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("sparqlx: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, endpoint string, err error) error {
	return &OpError{Op: op, Endpoint: endpoint, Err: err}
}

// StatusError reports a non-2xx endpoint response.
type StatusError struct {
	// Code is the HTTP status code.
	Code int

	// Body holds up to the first few kilobytes of the response body,
	// typically the endpoint's error message.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("endpoint returned status %d: %s", e.Code, e.Body)
}
