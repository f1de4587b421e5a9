// Package client provides a GraphQL client for the showrunner server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/session"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://localhost:8585/query"

// Client is a GraphQL client for the showrunner server.
// It implements workflow.Repository and workflow.StoryRepository.
type Client struct {
	endpoint   string
	httpClient *http.Client
	session    *session.Session
}

// New creates a new GraphQL client. The session, when non-nil, supplies the bearer token sent
// with every request. Timeout bounds a single request; season generation can take minutes.
func New(endpoint string, timeout time.Duration, sess *session.Session) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
	}
}

// graphQLRequest is the request payload for GraphQL operations.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response payload from GraphQL operations.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// graphQLError represents a GraphQL error.
type graphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

// Error codes the server attaches to GraphQL errors.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION"
	CodeConflict   = "CONFLICT"
)

// Error is a GraphQL error returned by the server.
// It unwraps to the matching models sentinel so callers can use errors.Is.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return "graphql error: " + e.Message
}

func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeNotFound:
		return models.ErrNotFound
	case CodeValidation:
		return models.ErrValidation
	case CodeConflict:
		return models.ErrGenerationInProgress
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
}

// Execute sends a GraphQL query/mutation and decodes the data into result.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, result any) error {
	reqBody, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server error: %s - %s", resp.Status, string(bytes.TrimSpace(body)))
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && len(gqlResp.Errors) == 0 {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(bytes.TrimSpace(body)))
	}

	if len(gqlResp.Errors) > 0 {
		first := gqlResp.Errors[0]
		return &Error{Message: first.Message, Code: first.Extensions.Code}
	}

	if result != nil && len(gqlResp.Data) > 0 {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}

	return nil
}
