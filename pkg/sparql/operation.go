package sparql

import (
	"net/url"
	"strings"
	"unicode"
)

// OperationKind distinguishes SPARQL queries from updates.
type OperationKind int

const (
	// KindQuery is a SPARQL Query operation.
	KindQuery OperationKind = iota
	// KindUpdate is a SPARQL Update operation.
	KindUpdate
)

// String returns the protocol name of the operation kind.
func (k OperationKind) String() string {
	if k == KindUpdate {
		return "update"
	}
	return "query"
}

// QueryType identifies the SPARQL query form, which selects the result
// converter: SELECT yields bindings, ASK a boolean, CONSTRUCT and DESCRIBE
// a graph.
type QueryType int

const (
	// QueryUnknown means the query form could not be detected.
	QueryUnknown QueryType = iota
	// QuerySelect is a SELECT query.
	QuerySelect
	// QueryAsk is an ASK query.
	QueryAsk
	// QueryConstruct is a CONSTRUCT query.
	QueryConstruct
	// QueryDescribe is a DESCRIBE query.
	QueryDescribe
)

// String returns the query form keyword.
func (t QueryType) String() string {
	switch t {
	case QuerySelect:
		return "SELECT"
	case QueryAsk:
		return "ASK"
	case QueryConstruct:
		return "CONSTRUCT"
	case QueryDescribe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

// Operation is a SPARQL operation string plus its protocol parameters.
// Operations are built per call and are immutable once built.
type Operation struct {
	// Kind is the operation kind (query or update).
	Kind OperationKind

	// Text is the raw operation string.
	Text string

	// Format is the requested response format: a symbolic name from the
	// format table ("json", "turtle", ...) or an opaque MIME type.
	// Empty selects the default for the query form.
	Format string

	// Version is the optional protocol version parameter.
	Version string

	// DefaultGraphs and NamedGraphs are the query dataset parameters.
	DefaultGraphs []string
	NamedGraphs   []string

	// UsingGraphs and UsingNamedGraphs are the update dataset parameters.
	UsingGraphs      []string
	UsingNamedGraphs []string

	// Method is the wire method used to dispatch the operation.
	Method Method

	queryType QueryType
}

// QueryType returns the detected query form. It is QueryUnknown for
// updates and for queries whose form could not be detected.
func (op *Operation) QueryType() QueryType { return op.queryType }

// params returns the protocol parameters excluding the operation text.
// Absent optional values are omitted entirely, never sent as empty pairs.
func (op *Operation) params() url.Values {
	v := url.Values{}
	if op.Version != "" {
		v.Set("version", op.Version)
	}
	switch op.Kind {
	case KindQuery:
		addGraphParams(v, "default-graph-uri", op.DefaultGraphs)
		addGraphParams(v, "named-graph-uri", op.NamedGraphs)
	case KindUpdate:
		addGraphParams(v, "using-graph-uri", op.UsingGraphs)
		addGraphParams(v, "using-named-graph-uri", op.UsingNamedGraphs)
	}
	return v
}

// values returns the full wire parameter set, operation text included.
func (op *Operation) values() url.Values {
	v := op.params()
	v.Set(op.Kind.String(), op.Text)
	return v
}

func addGraphParams(v url.Values, key string, uris []string) {
	for _, uri := range uris {
		if uri != "" {
			v.Add(key, uri)
		}
	}
}

// DetectQueryType inspects the leading keyword of a query string to
// determine its form. Comments and the BASE/PREFIX prologue are skipped;
// matching is case-insensitive.
func DetectQueryType(query string) QueryType {
	rest := query
	for {
		var tok string
		tok, rest = nextToken(rest)
		switch strings.ToUpper(tok) {
		case "":
			return QueryUnknown
		case "SELECT":
			return QuerySelect
		case "ASK":
			return QueryAsk
		case "CONSTRUCT":
			return QueryConstruct
		case "DESCRIBE":
			return QueryDescribe
		case "BASE":
			_, rest = nextToken(rest) // IRI
		case "PREFIX":
			_, rest = nextToken(rest) // prefix label
			_, rest = nextToken(rest) // IRI
		default:
			return QueryUnknown
		}
	}
}

// nextToken returns the next whitespace-delimited token, skipping '#'
// comments, and the remainder of the input.
func nextToken(s string) (string, string) {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if strings.HasPrefix(s, "#") {
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
				continue
			}
			return "", ""
		}
		break
	}
	if s == "" {
		return "", ""
	}
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
