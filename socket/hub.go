package socket

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"notesync/pkg/logger"
)

const (
	SubscribedType = "SUBSCRIBED" // feed established for this owner
	UpdateType     = "UPDATE"     // note content changed
)

// Notification is the wire message a change feed delivers.
type Notification struct {
	Type      string    `json:"type"`
	OwnerID   string    `json:"owner_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Hub fans note updates out to every live feed connection for an owner.
// The writer's own connections are not excluded; the session's mirror makes
// echoed notifications idempotent.
type Hub struct {
	Feeds      map[string]map[*Client]bool // ownerID -> live feed clients
	Broadcast  chan Notification
	Register   chan *Client
	Unregister chan *Client
	db         *sql.DB

	mu sync.Mutex
	// noteCache holds the last known note per owner with a live feed, so a
	// subscriber joining after a write still starts from current state. A
	// nil entry means the owner has no note row yet.
	noteCache map[string]*Notification
}

func NewHub(db *sql.DB) *Hub {
	return &Hub{
		Feeds:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Notification),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		db:         db,
		noteCache:  make(map[string]*Notification),
	}
}

// Publish queues a note update for fan-out to the owner's live feeds.
func (h *Hub) Publish(ownerID, content string, updatedAt time.Time) {
	h.Broadcast <- Notification{Type: UpdateType, OwnerID: ownerID, Content: content, UpdatedAt: updatedAt}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Feeds[client.OwnerID] == nil {
				h.Feeds[client.OwnerID] = make(map[*Client]bool)
			}
			h.Feeds[client.OwnerID][client] = true

			// First feed for this owner: warm the cache from the database.
			if _, warmed := h.noteCache[client.OwnerID]; !warmed {
				var n Notification
				n.Type = UpdateType
				n.OwnerID = client.OwnerID
				err := h.db.QueryRow("SELECT content, updated_at FROM notes WHERE owner_id = $1", client.OwnerID).
					Scan(&n.Content, &n.UpdatedAt)
				switch {
				case err == sql.ErrNoRows:
					h.noteCache[client.OwnerID] = nil
				case err != nil:
					logger.Sugar.Errorf("Failed to load note for owner %s: %v", client.OwnerID, err)
					h.noteCache[client.OwnerID] = nil
				default:
					h.noteCache[client.OwnerID] = &n
				}
			}
			current := h.noteCache[client.OwnerID]
			h.mu.Unlock()

			// Ack establishment first, then hand the subscriber the current
			// state so a session that raced a write since its initial load
			// catches up immediately.
			ack, _ := json.Marshal(Notification{Type: SubscribedType, OwnerID: client.OwnerID})
			client.Send <- ack
			if current != nil {
				payload, _ := json.Marshal(*current)
				client.Send <- payload
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Feeds[client.OwnerID][client]; ok {
				delete(h.Feeds[client.OwnerID], client)
				close(client.Send)

				if len(h.Feeds[client.OwnerID]) == 0 {
					delete(h.Feeds, client.OwnerID)
					delete(h.noteCache, client.OwnerID)
					logger.Sugar.Infof("Closed feed for owner with no live sessions: %s", client.OwnerID)
				}
			}
			h.mu.Unlock()

		case n := <-h.Broadcast:
			h.mu.Lock()
			if h.Feeds[n.OwnerID] == nil {
				// No live feeds for this owner; nothing to deliver or cache.
				h.mu.Unlock()
				continue
			}
			snapshot := n
			h.noteCache[n.OwnerID] = &snapshot

			clientsToSend := make([]*Client, 0, len(h.Feeds[n.OwnerID]))
			for client := range h.Feeds[n.OwnerID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			payload, err := json.Marshal(n)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling feed notification: %v", err)
				continue
			}

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// The send buffer is full; the client is lagging. Kick it
					// off the hub rather than blocking everyone. Unregister
					// must go through a goroutine since this loop is the
					// channel's receiver.
					logger.Sugar.Warnf("Feed client for owner %s is lagging. Unregistering.", client.OwnerID)
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}
