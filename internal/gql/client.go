// Package gql is a small GraphQL-over-HTTP client for the comments API.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/rs/zerolog"
)

// ErrUnauthorized is returned when the server rejects the access token.
var ErrUnauthorized = errors.New("unauthorized")

// Request is the JSON body of a GraphQL call.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is the JSON body returned by the server.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// Error is a single entry of a response's errors list.
type Error struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// ResponseError is returned when the server answered with GraphQL errors.
type ResponseError struct {
	Operation string
	Errors    []Error
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Message)
	}
	return fmt.Sprintf("%s: %s", e.Operation, strings.Join(msgs, "; "))
}

// Error codes the graphql library uses for its own failures rather than for
// errors reported by the server.
var clientErrorCodes = map[string]bool{
	"request_error":        true,
	"json_encode_error":    true,
	"json_decode_error":    true,
	"graphql_encode_error": true,
	"graphql_decode_error": true,
}

// Client sends operations to a GraphQL endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the transport timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exchange records the outcome of the single HTTP round trip behind one
// operation. Bodies of non-200 responses are kept so their errors list can
// still be reported.
type exchange struct {
	hc     *http.Client
	status int
	body   []byte
	err    error
}

func (x *exchange) Do(req *http.Request) (*http.Response, error) {
	resp, err := x.hc.Do(req)
	if err != nil {
		x.err = err
		return nil, err
	}
	x.status = resp.StatusCode
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		x.err = err
		return nil, err
	}
	x.body = raw
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, nil
}

// Do runs one operation and decodes its data into out. out may be nil.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	x := &exchange{hc: c.http}
	gc := graphql.NewClient(c.endpoint, x).WithRequestModifier(func(req *http.Request) {
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
	})

	start := time.Now()
	data, err := gc.ExecRaw(ctx, query, variables, graphql.OperationName(operation))

	c.log.Debug().
		Str("operation", operation).
		Int("status", x.status).
		Dur("elapsed", time.Since(start)).
		Msg("graphql request")

	if x.err != nil {
		return fmt.Errorf("%s: %w", operation, x.err)
	}
	if x.status == http.StatusUnauthorized || x.status == http.StatusForbidden {
		return fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	}
	if x.status != 0 && x.status != http.StatusOK {
		var decoded Response
		if json.Unmarshal(x.body, &decoded) == nil && len(decoded.Errors) > 0 {
			return &ResponseError{Operation: operation, Errors: decoded.Errors}
		}
		return fmt.Errorf("%s: status %d", operation, x.status)
	}

	if err != nil {
		if respErr := responseError(operation, err); respErr != nil {
			return respErr
		}
		return fmt.Errorf("%s: %w", operation, err)
	}

	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", operation, err)
	}
	return nil
}

// responseError converts server-reported GraphQL errors. It returns nil when
// err carries none, for example when the response body was not JSON.
func responseError(operation string, err error) *ResponseError {
	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) {
		return nil
	}

	out := make([]Error, 0, len(gqlErrs))
	for _, e := range gqlErrs {
		if code, _ := e.Extensions["code"].(string); clientErrorCodes[code] {
			return nil
		}
		var path []string
		for _, p := range e.Path {
			path = append(path, fmt.Sprint(p))
		}
		out = append(out, Error{Message: e.Message, Path: path})
	}
	if len(out) == 0 {
		return nil
	}
	return &ResponseError{Operation: operation, Errors: out}
}
