package graph

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
)

var errForbidden = errors.New("forbidden")

// NewHandler creates the /query handler serving POST, GET and graphql-transport-ws subscriptions.
// keepAlive is the ping interval on subscription connections; zero disables it. When token is
// non-empty, websocket clients must present it in their connection_init payload; plain HTTP
// requests are checked by server.BearerAuth.
func NewHandler(r *Resolver, token string, keepAlive time.Duration) *handler.Server {
	srv := handler.New(NewExecutor(r))

	// WebSocket first for subscription upgrades
	srv.AddTransport(transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		KeepAlivePingInterval: keepAlive,
		InitFunc:              checkInitToken(token, r.logger),
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})
	return srv
}

// checkInitToken authenticates websocket connections by the Authorization entry of their
// connection_init payload.
func checkInitToken(token string, logger *slog.Logger) transport.WebsocketInitFunc {
	return func(ctx context.Context, payload transport.InitPayload) (context.Context, *transport.InitPayload, error) {
		if token == "" {
			return ctx, nil, nil
		}
		want := "Bearer " + token
		if subtle.ConstantTimeCompare([]byte(payload.Authorization()), []byte(want)) != 1 {
			logger.Warn("websocket connection rejected", "reason", "invalid token")
			return ctx, nil, errForbidden
		}
		return ctx, nil, nil
	}
}
