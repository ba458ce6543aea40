package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

func newTestClient(hub *Hub, mode domain.DetectionMode, buf int) *Client {
	return &Client{id: uuid.New(), hub: hub, mode: mode, send: make(chan []byte, buf)}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub, "", 1)

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.GetConnectedClients())

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.GetConnectedClients())
}

func TestHub_Emit(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub, "", 10)

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.Emit(domain.DetectionEvent{Mode: domain.ModeFace, Seq: 9, Faces: 1})

	select {
	case msg := <-client.send:
		var event struct {
			Type EventType             `json:"type"`
			Mode domain.DetectionMode  `json:"mode"`
			Data domain.DetectionEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventDetection, event.Type)
		assert.Equal(t, domain.ModeFace, event.Mode)
		assert.Equal(t, uint64(9), event.Data.Seq)
		assert.Equal(t, 1, event.Data.Faces)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_ModeFilter(t *testing.T) {
	hub := runHub(t)
	bodyOnly := newTestClient(hub, domain.ModeBody, 10)
	all := newTestClient(hub, "", 10)

	hub.register <- bodyOnly
	hub.register <- all
	time.Sleep(50 * time.Millisecond)

	hub.Emit(domain.DetectionEvent{Mode: domain.ModeFace})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, all.send, 1)
	assert.Len(t, bodyOnly.send, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := runHub(t)
	slow := newTestClient(hub, "", 0)

	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Emit(domain.DetectionEvent{Mode: domain.ModeEye})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.GetConnectedClients())
	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, "", 1)
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.GetConnectedClients())
	_, open := <-client.send
	assert.False(t, open)
}
