package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/playgoban/goban-backend/internal/game"
)

// identityResolver is the contract of the external auth collaborator:
// it must have attached a user ID and display name to the token before
// a connection is admitted here.
type identityResolver interface {
	GetByToken(ctx context.Context, token string) (*entity.Identity, error)
}

type Server struct {
	logger     *slog.Logger
	registry   *game.Registry
	identities identityResolver
	upgrader   websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *Client, frame *Frame) error

	clientsMu sync.RWMutex
	clients   map[string]*Client
}

func New(logger *slog.Logger, registry *game.Registry, identities identityResolver) *Server {
	server := &Server{
		logger:     logger,
		registry:   registry,
		identities: identities,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]func(context.Context, *Client, *Frame) error),
		clients:  make(map[string]*Client),
	}

	server.handlers["create"] = server.handleCreate
	server.handlers["join"] = server.handleJoin
	server.handlers["cancel"] = server.handleCancel
	server.handlers["move"] = server.handleMove
	server.handlers["rejoin"] = server.handleRejoin

	registry.SetNotifier(server)

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - admits a connection: identity first, upgrade second, then
// the read loop until the peer goes away.
func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	identity, err := that.resolveIdentity(r)
	if err != nil {
		log.Info("connection rejected", "error", err)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(*identity, ws)
	that.addClient(client)

	log.Info("connection established", "connID", client.id, "userID", identity.UserID)

	// The newcomer gets the current lobby right away.
	if err = client.Send(that.lobbySnapshot()); err != nil {
		log.Error("failed to send lobby snapshot", "connID", client.id, "error", err)
	}

	that.readLoop(ctx, client)
}

// resolveIdentity - extracts the auth token and asks the external
// collaborator for the identity behind it. Identity is never derived
// from message payloads.
func (that *Server) resolveIdentity(r *http.Request) (*entity.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie("auth_token"); err == nil {
			token = cookie.Value
		}
	}

	if token == "" {
		return nil, errors.New("missing auth token")
	}

	identity, err := that.identities.GetByToken(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	return identity, nil
}

// readLoop - processes frames from one client. A malformed payload is
// discarded and logged; it never tears down the handler for others.
func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop", "connID", client.id)

	defer that.dropClient(client)

	for {
		_, data, err := client.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("connection closed unexpectedly", "error", err)
			}
			return
		}

		var frame Frame
		if err = json.Unmarshal(data, &frame); err != nil {
			log.Warn("discarding malformed frame", "error", err)
			continue
		}

		kind := frame.Action
		if kind == "" {
			kind = frame.Type
		}

		handler, ok := that.handlers[kind]
		if !ok {
			log.Warn("discarding unknown frame", "kind", kind)
			continue
		}

		if err = handler(ctx, client, &frame); err != nil {
			log.Info("request rejected", "kind", kind, "error", err)
			that.sendError(client, err)
		}
	}
}

// dropClient - runs the disconnect bookkeeping for a connection that
// went away, then republishes the lobby if anything visible changed.
func (that *Server) dropClient(client *Client) {
	that.clientsMu.Lock()
	delete(that.clients, client.id)
	that.clientsMu.Unlock()

	_ = client.ws.Close()

	that.logger.Info("connection closed", "connID", client.id, "userID", client.UserID())

	if that.registry.HandleDisconnect(client) {
		that.PublishLobby()
	}
}

func (that *Server) addClient(client *Client) {
	that.clientsMu.Lock()
	defer that.clientsMu.Unlock()

	that.clients[client.id] = client
}

func (that *Server) allClients() []*Client {
	that.clientsMu.RLock()
	defer that.clientsMu.RUnlock()

	clients := make([]*Client, 0, len(that.clients))
	for _, client := range that.clients {
		clients = append(clients, client)
	}

	return clients
}
