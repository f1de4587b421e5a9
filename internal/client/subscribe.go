package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// graphql-transport-ws protocol message types
const (
	gqlConnectionInit      = "connection_init"
	gqlConnectionAck       = "connection_ack"
	gqlSubscribe           = "subscribe"
	gqlNext                = "next"
	gqlError               = "error"
	gqlComplete            = "complete"
	gqlPing                = "ping"
	gqlPong                = "pong"
	gqlConnectionKeepAlive = "ka"
)

// wsMessage represents a graphql-transport-ws protocol message.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsSubscribePayload is the payload for subscribe messages.
type wsSubscribePayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// ErrStopWatching can be returned from a WatchGeneration callback to end the subscription
// without an error.
var ErrStopWatching = errors.New("stop watching")

// wsEndpoint converts the HTTP endpoint into its WebSocket equivalent.
func (c *Client) wsEndpoint() (string, error) {
	ws := c.endpoint
	ws = strings.Replace(ws, "http://", "ws://", 1)
	ws = strings.Replace(ws, "https://", "wss://", 1)

	u, err := url.Parse(ws)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	return u.String(), nil
}

// WatchGeneration streams generation progress of a series until the run finishes, the context is
// cancelled or onEvent returns an error. Each finished episode is delivered as one event; the
// final event has Done set.
func (c *Client) WatchGeneration(
	ctx context.Context,
	seriesID string,
	onEvent func(models.GenerationEvent) error,
) error {
	endpoint, err := c.wsEndpoint()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"graphql-transport-ws"},
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	// The bearer token travels in the connection_init payload.
	initMsg := wsMessage{Type: gqlConnectionInit}
	if c.session != nil && c.session.Token != "" {
		initMsg.Payload, _ = json.Marshal(map[string]string{
			"Authorization": "Bearer " + c.session.Token,
		})
	}
	if err := conn.WriteJSON(initMsg); err != nil {
		return fmt.Errorf("send connection_init: %w", err)
	}

	var ackMsg wsMessage
	if err := conn.ReadJSON(&ackMsg); err != nil {
		return fmt.Errorf("read connection_ack: %w", err)
	}
	if ackMsg.Type != gqlConnectionAck {
		return fmt.Errorf("expected connection_ack, got %s", ackMsg.Type)
	}

	subscriptionQuery := `
		subscription GenerationProgress($seriesId: ID!) {
			generationProgress(seriesId: $seriesId) {
				seriesId
				season
				done
				error
				episode {` + episodeFields + `}
			}
		}
	`

	subscriptionID := uuid.New().String()
	payload, _ := json.Marshal(wsSubscribePayload{
		Query:     subscriptionQuery,
		Variables: map[string]any{"seriesId": seriesID},
	})
	subMsg := wsMessage{
		ID:      subscriptionID,
		Type:    gqlSubscribe,
		Payload: payload,
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case gqlNext:
			var data struct {
				Data struct {
					GenerationProgress models.GenerationEvent `json:"generationProgress"`
				} `json:"data"`
				Errors []graphQLError `json:"errors"`
			}
			if err := json.Unmarshal(msg.Payload, &data); err != nil {
				return fmt.Errorf("unmarshal next payload: %w", err)
			}
			if len(data.Errors) > 0 {
				return &Error{Message: data.Errors[0].Message, Code: data.Errors[0].Extensions.Code}
			}

			event := data.Data.GenerationProgress
			if err := onEvent(event); err != nil {
				if errors.Is(err, ErrStopWatching) {
					return nil
				}
				return err
			}
			if event.Done {
				return nil
			}

		case gqlError:
			var gqlErrs []graphQLError
			if err := json.Unmarshal(msg.Payload, &gqlErrs); err != nil {
				return fmt.Errorf("subscription error: %s", string(msg.Payload))
			}
			if len(gqlErrs) > 0 {
				return &Error{Message: gqlErrs[0].Message, Code: gqlErrs[0].Extensions.Code}
			}
			return fmt.Errorf("subscription error: unknown")

		case gqlComplete:
			return nil

		case gqlPing:
			if err := conn.WriteJSON(wsMessage{Type: gqlPong}); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}

		case gqlConnectionKeepAlive, gqlPong:
			continue

		default:
			continue
		}
	}
}
