package feed

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/notepad"
	"notesync/socket"
)

type change struct {
	Content   string
	UpdatedAt time.Time
}

func TestClientSubscribeEstablishesAndDelivers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hub := socket.NewHub(db)
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, r.URL.Query().Get("owner"))
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?owner=owner-1"

	savedAt := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT content, updated_at FROM notes WHERE owner_id = \\$1").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"content", "updated_at"}).AddRow("hello", savedAt))

	results := make(chan error, 1)
	changes := make(chan change, 4)

	client := &Client{URL: wsURL}
	sub, err := client.Subscribe("owner-1",
		func(content string, updatedAt time.Time) {
			changes <- change{Content: content, UpdatedAt: updatedAt}
		},
		func(err error) { results <- err },
	)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case err := <-results:
		assert.NoError(t, err, "establishment should succeed")
	case <-time.After(time.Second):
		t.Fatal("establishment never reported")
	}

	// The hub hands the subscriber current state right after the ack.
	select {
	case c := <-changes:
		assert.Equal(t, "hello", c.Content)
	case <-time.After(time.Second):
		t.Fatal("initial state never delivered")
	}

	hub.Publish("owner-1", "world", savedAt.Add(time.Minute))
	select {
	case c := <-changes:
		assert.Equal(t, "world", c.Content)
	case <-time.After(time.Second):
		t.Fatal("published update never delivered")
	}

	// Unsubscribe twice is safe and stops delivery.
	sub.Unsubscribe()
	sub.Unsubscribe()
	hub.Publish("owner-1", "gone", savedAt.Add(2*time.Minute))
	select {
	case c := <-changes:
		t.Fatalf("received %q after unsubscribe", c.Content)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClientDialFailureReturnsSubscriptionError(t *testing.T) {
	client := &Client{URL: "ws://127.0.0.1:1/ws"}
	sub, err := client.Subscribe("owner-1", nil, func(error) {
		t.Error("onResult must not fire when Subscribe itself fails")
	})
	assert.Nil(t, sub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, notepad.ErrSubscription))
}

func TestClientEndpointTokenJoining(t *testing.T) {
	c := &Client{URL: "ws://host/ws", Token: "tok en"}
	assert.Equal(t, "ws://host/ws?token=tok+en", c.endpoint())

	c = &Client{URL: "ws://host/ws?owner=o1", Token: "t"}
	assert.Equal(t, "ws://host/ws?owner=o1&token=t", c.endpoint())

	c = &Client{URL: "ws://host/ws"}
	assert.Equal(t, "ws://host/ws", c.endpoint())
}

func TestLocalFeedFanOut(t *testing.T) {
	f := NewLocalFeed()

	var established int
	changes := make([]change, 0, 2)
	sub, err := f.Subscribe("owner-1",
		func(content string, updatedAt time.Time) {
			changes = append(changes, change{Content: content, UpdatedAt: updatedAt})
		},
		func(err error) {
			require.NoError(t, err)
			established++
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, established, "establishment reported exactly once")

	f.Publish("owner-1", "a", time.Now())
	f.Publish("owner-2", "other owner", time.Now())
	require.Len(t, changes, 1, "only the subscribed owner's updates arrive")
	assert.Equal(t, "a", changes[0].Content)

	sub.Unsubscribe()
	sub.Unsubscribe()
	f.Publish("owner-1", "b", time.Now())
	assert.Len(t, changes, 1, "no delivery after unsubscribe")
}
