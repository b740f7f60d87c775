package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/event"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. keys maps the client's current
// subscription keys to its local aliases; it is owned by the hub loop.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	tenantID string
	keys     map[string]string
	log      zerolog.Logger
}

// syncMessage is the only frame clients send: the complete set of entity
// keys they want to watch, each bound to a local alias echoed back in
// delivered frames. The hub diffs it against the current set.
type syncMessage struct {
	Type string            `json:"type"`
	Keys map[string]string `json:"keys"`
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, tenantID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		tenantID: tenantID,
		keys:     make(map[string]string),
		log:      h.log.With().Str("tenant_id", tenantID).Logger(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump consumes sync frames until the connection drops. Malformed
// frames and unauthorized keys are ignored, never answered.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("Websocket read error")
			}
			return
		}

		var msg syncMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "sync" {
			continue
		}

		c.hub.sync <- syncRequest{
			client: c,
			keys:   c.authorizeKeys(msg.Keys),
		}
	}
}

// authorizeKeys parses and filters the requested keys down to the ones this
// tenant may watch, preserving each key's alias. Authorization runs on
// every sync, never cached across set changes.
func (c *Client) authorizeKeys(raw map[string]string) map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	allowed := make(map[string]string, len(raw))
	for s, alias := range raw {
		key, err := event.ParseKey(s)
		if err != nil {
			continue
		}
		// Field keys are authorized at the entity level.
		if !c.hub.authorizer.Authorize(ctx, c.tenantID, key.Entity()) {
			continue
		}
		allowed[key.String()] = alias
	}
	return allowed
}

// writePump pushes hub frames and pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
