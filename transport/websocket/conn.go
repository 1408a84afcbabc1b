package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/playgoban/goban-backend/internal/game"
)

const writeTimeout = 10 * time.Second

// Client is one live connection with its resolved identity. The
// gateway owns it for the network lifetime; sessions only hold it as
// an opaque reference.
type Client struct {
	id       string
	identity entity.Identity
	ws       *websocket.Conn

	// writeMu - gorilla connections do not allow concurrent writers.
	writeMu sync.Mutex

	mu      sync.Mutex
	session *game.Session
}

func newClient(identity entity.Identity, ws *websocket.Conn) *Client {
	return &Client{
		id:       uuid.NewString(),
		identity: identity,
		ws:       ws,
	}
}

func (that *Client) UserID() string {
	return that.identity.UserID
}

func (that *Client) DisplayName() string {
	return that.identity.DisplayName
}

// Send - writes one JSON frame. A write failure closes the underlying
// connection so the read loop runs the regular disconnect path; the
// peer is then treated exactly like a client that dropped.
func (that *Client) Send(v any) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.ws.SetWriteDeadline(time.Now().Add(writeTimeout))

	if err := that.ws.WriteJSON(v); err != nil {
		_ = that.ws.Close()
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// Session - the client's current session, a lookup aid only; slot
// membership inside the session stays authoritative.
func (that *Client) Session() *game.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session
}

func (that *Client) SetSession(session *game.Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.session = session
}
