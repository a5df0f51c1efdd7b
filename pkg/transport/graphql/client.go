package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/core"
	"github.com/saturnines/nexus-source/pkg/errors"
	"github.com/saturnines/nexus-source/pkg/settings"
)

// Client runs standard and persisted GraphQL queries over a core.Client.
// Execute and ExecutePersisted never return Go errors or panic; Query and
// Persisted return *errors.Error of kind GraphQLError instead.
type Client struct {
	api      *core.Client
	resolver settings.BaseURLResolver
	endpoint string
	headers  map[string]string
	logger   *zap.Logger
}

// NewClient creates a GraphQL client over api
func NewClient(api *core.Client, opts ...ClientOption) *Client {
	c := &Client{
		api:      api,
		endpoint: config.DefaultGraphQLPath,
		headers:  make(map[string]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil && api != nil {
		c.resolver = api.Resolver()
	}
	return c
}

// Endpoint returns the resolved endpoint URL
func (c *Client) Endpoint() (string, error) {
	return settings.Resolve(c.resolver, c.endpoint)
}

// Execute sends q as a JSON POST
func (c *Client) Execute(ctx context.Context, q Query) (result Result) {
	defer recoverInto(&result, "")

	if strings.TrimSpace(q.Query) == "" {
		return Result{Err: &Error{Code: CodeInvalidQuery, Message: "query is required"}}
	}

	endpoint, err := c.Endpoint()
	if err != nil {
		return exception(err, "")
	}

	opts := c.requestOptions(q.Headers, q.UseAuth, q.Retries)
	c.logger.Debug("execute", zap.String("endpoint", endpoint))

	res, err := c.api.PostJSON(ctx, endpoint, q.body(), opts...)
	if err != nil {
		return exception(err, "")
	}
	if res == nil {
		return Result{}
	}

	if obj, ok := res.JSON.(map[string]any); ok {
		return Result{Data: obj["data"]}
	}
	return Result{Data: res.JSON}
}

// ExecutePersisted sends q as a GET with operationName, variables and extensions parameters.
// Server errors come back as graphql-error together with any partial data.
func (c *Client) ExecutePersisted(ctx context.Context, q PersistedQuery) (result Result) {
	defer recoverInto(&result, q.OperationName)

	if q.OperationName == "" || q.SHA256Hash == "" {
		return Result{Err: &Error{
			Code:          CodeInvalidPersistedQuery,
			Message:       "operationName and sha256Hash are required",
			OperationName: q.OperationName,
		}}
	}

	endpoint, err := c.Endpoint()
	if err != nil {
		return exception(err, q.OperationName)
	}
	target, err := q.URL(endpoint)
	if err != nil {
		return exception(err, q.OperationName)
	}

	opts := append(c.requestOptions(q.Headers, q.UseAuth, q.Retries), core.WithThrowOnError(false))
	c.logger.Debug("execute persisted",
		zap.String("endpoint", endpoint),
		zap.String("operation", q.OperationName),
	)

	res, err := c.api.Get(ctx, target, opts...)
	if err != nil {
		return exception(err, q.OperationName)
	}
	if res == nil {
		return Result{Err: &Error{
			Code:          CodeException,
			Message:       fmt.Sprintf("persisted query %s to %s failed", q.OperationName, endpoint),
			OperationName: q.OperationName,
		}}
	}

	var payload struct {
		Data   any           `json:"data"`
		Errors gqlerror.List `json:"errors"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return exception(fmt.Errorf("decode response from %s: %w", endpoint, err), q.OperationName)
	}

	if payload.Errors != nil {
		if q.Document != "" && persistedQueryNotFound(payload.Errors) {
			c.logger.Debug("persisted query not found, sending document", zap.String("operation", q.OperationName))
			return c.Execute(ctx, Query{
				Query:     q.Document,
				Variables: q.Variables,
				Headers:   q.Headers,
				UseAuth:   q.UseAuth,
				Retries:   q.Retries,
			})
		}
		return Result{Err: fromList(payload.Errors, q.OperationName), Data: payload.Data}
	}
	return Result{Data: payload.Data}
}

// Query is Execute returning the data or a GraphQLError
func (c *Client) Query(ctx context.Context, q Query) (any, error) {
	return raise(c.Execute(ctx, q))
}

// Persisted is ExecutePersisted returning the data or a GraphQLError
func (c *Client) Persisted(ctx context.Context, q PersistedQuery) (any, error) {
	return raise(c.ExecutePersisted(ctx, q))
}

func (c *Client) requestOptions(headers map[string]string, useAuth bool, retries *int) []core.RequestOption {
	opts := []core.RequestOption{
		core.WithHeaders(c.headers),
		core.WithHeaders(headers),
	}
	// false keeps the api client's default
	if useAuth {
		opts = append(opts, core.WithAuth(true))
	}
	if retries != nil {
		opts = append(opts, core.WithRetries(*retries))
	}
	return opts
}

func raise(r Result) (any, error) {
	if r.Err != nil {
		return nil, errors.GraphQL(r.Err.Message)
	}
	return r.Data, nil
}

func exception(err error, operationName string) Result {
	return Result{Err: &Error{
		Code:          CodeException,
		Message:       err.Error(),
		OperationName: operationName,
	}}
}

func recoverInto(result *Result, operationName string) {
	if r := recover(); r != nil {
		*result = exception(fmt.Errorf("%v", r), operationName)
	}
}
