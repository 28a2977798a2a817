package socket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"notesync/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from the separately-hosted editor UI.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live change-feed connection, scoped to a single owner.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	OwnerID string
	Send    chan []byte
}

// ServeWs upgrades an authenticated request into a change-feed connection.
// ownerID comes from the verified token, so a session can only ever observe
// its own note.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, ownerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:     hub,
		Conn:    conn,
		OwnerID: ownerID,
		Send:    make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// readPump only consumes control frames; feeds are server-push and clients
// never publish through the socket. It exists to notice the close.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("feed read: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	// Ping every 30s to keep the connection alive and detect drops.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				// Hub closed the channel; the client was unregistered.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
