package graphql

import (
	"encoding/json"
	"net/url"
)

// Query is a standard GraphQL document sent by POST
type Query struct {
	Query     string
	Variables map[string]any
	Headers   map[string]string
	UseAuth   bool
	Retries   *int // nil uses the client default
}

// PersistedQuery references a query the server already knows by hash. It is sent by GET.
type PersistedQuery struct {
	OperationName string
	SHA256Hash    string
	Version       int // defaults to 1
	Variables     map[string]any
	Headers       map[string]string
	UseAuth       bool
	Retries       *int

	// Document is sent as a standard query when the server does not know the hash.
	// Leave empty to report PersistedQueryNotFound as an error instead.
	Document string
}

// Retries is a helper for the Retries fields
func Retries(n int) *int { return &n }

// Result is the outcome of a GraphQL call. Err and Data may both be set when
// the server returned partial data alongside errors.
type Result struct {
	Err  *Error
	Data any
}

type standardBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (q Query) body() standardBody {
	vars := q.Variables
	if vars == nil {
		vars = map[string]any{}
	}
	return standardBody{Query: q.Query, Variables: vars}
}

type persistedExtensions struct {
	PersistedQuery struct {
		Version    int    `json:"version"`
		SHA256Hash string `json:"sha256Hash"`
	} `json:"persistedQuery"`
}

// URL appends the persisted query parameters to endpoint
func (q PersistedQuery) URL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("operationName", q.OperationName)

	if len(q.Variables) > 0 {
		vars, err := json.Marshal(q.Variables)
		if err != nil {
			return "", err
		}
		params.Set("variables", string(vars))
	}

	var ext persistedExtensions
	ext.PersistedQuery.Version = q.Version
	if ext.PersistedQuery.Version < 1 {
		ext.PersistedQuery.Version = 1
	}
	ext.PersistedQuery.SHA256Hash = q.SHA256Hash
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return "", err
	}
	params.Set("extensions", string(extJSON))

	u.RawQuery = params.Encode()
	return u.String(), nil
}
