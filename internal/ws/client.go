package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/restopos/api/internal/auth"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // access is checked through the JWT
	},
}

// Client is one kitchen display connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	kitchen string
	send    chan []byte
}

// ReadPump only watches for disconnects; displays never send commands over
// the socket.
func (c *Client) ReadPump() {
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: websocket %s: %v", c.kitchen, err)
			}
			return
		}
	}
}

// WritePump writes queued events, one frame each, and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped the display
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// ServeWS handles WS /ws/kitchens/{kitchen}?token=JWT.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the upgrade request, so the query
	// parameter comes first.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		var err error
		if tokenStr, err = auth.BearerToken(r.Header.Get("Authorization")); err != nil {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
	}
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	kitchen := chi.URLParam(r, "kitchen")
	if !claims.CanAccessKitchen(kitchen) {
		http.Error(w, "kitchen access denied", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade: %v", err)
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		kitchen: kitchen,
		send:    make(chan []byte, 256),
	}
	// Queued before registering so the snapshot always arrives first
	if msg := hub.snapshotMessage(kitchen); msg != nil {
		client.send <- msg
	}
	hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
