// Package feed provides change-feed implementations for the sync core: a
// websocket client for the hub, and an in-process fan-out for tests and
// single-process deployments.
package feed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notesync/internal/notepad"
	"notesync/socket"
)

// Client subscribes to the websocket change-feed hub and adapts it to
// notepad.Feed. Establishment is the hub's SUBSCRIBED ack; a dial or read
// failure before the ack is reported through onResult exactly once.
type Client struct {
	URL    string // ws:// or wss:// endpoint of the /ws route
	Token  string // session token, appended as a query parameter
	Dialer *websocket.Dialer
	Logger *zap.Logger
}

func (c *Client) Subscribe(ownerID string, onChange func(string, time.Time), onResult func(error)) (notepad.Subscription, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	conn, _, err := dialer.Dial(c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notepad.ErrSubscription, err)
	}

	sub := &subscription{conn: conn}
	go sub.readLoop(ownerID, onChange, onResult, log)
	return sub, nil
}

func (c *Client) endpoint() string {
	if c.Token == "" {
		return c.URL
	}
	sep := "?"
	if strings.Contains(c.URL, "?") {
		sep = "&"
	}
	return c.URL + sep + "token=" + url.QueryEscape(c.Token)
}

type subscription struct {
	conn *websocket.Conn
	once sync.Once
}

// Unsubscribe closes the connection, ending the read loop. Idempotent.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.conn.Close() })
}

func (s *subscription) readLoop(ownerID string, onChange func(string, time.Time), onResult func(error), log *zap.Logger) {
	established := false
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if !established {
				if onResult != nil {
					onResult(fmt.Errorf("%w: %v", notepad.ErrSubscription, err))
				}
			} else {
				// No reconnection is attempted; the session stays on its
				// last state until the caller resubscribes.
				log.Warn("change feed closed", zap.String("owner", ownerID), zap.Error(err))
			}
			return
		}

		var n socket.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			log.Warn("undecodable feed frame", zap.Error(err))
			continue
		}
		if n.OwnerID != "" && n.OwnerID != ownerID {
			continue
		}

		switch n.Type {
		case socket.SubscribedType:
			if !established {
				established = true
				if onResult != nil {
					onResult(nil)
				}
			}
		case socket.UpdateType:
			if onChange != nil {
				onChange(n.Content, n.UpdatedAt)
			}
		}
	}
}
