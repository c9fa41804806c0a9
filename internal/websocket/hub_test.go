package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func newTestHub() *Hub {
	h := NewHub(nil, noopLogger{})
	go h.Run()
	return h
}

func registerTestClient(h *Hub, tenantId string, buffer int) *Client {
	client := &Client{Hub: h, TenantID: tenantId, Send: make(chan []byte, buffer)}
	h.register <- client
	time.Sleep(10 * time.Millisecond)
	return client
}

func TestNotifyTenantDeliversExactlyOnce(t *testing.T) {
	h := newTestHub()
	client := registerTestClient(h, "tenant-a", 4)

	h.NotifyTenant("tenant-a", FeedEvent{Type: "visitor_message", SessionId: "s1", Content: "hi"})

	select {
	case data := <-client.Send:
		var envelope struct {
			Type string    `json:"type"`
			Data FeedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &envelope))
		assert.Equal(t, "feed_event", envelope.Type)
		assert.Equal(t, "visitor_message", envelope.Data.Type)
	case <-time.After(time.Second):
		t.Fatal("feed event was never delivered")
	}

	select {
	case <-client.Send:
		t.Fatal("feed event delivered twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifyTenantSkipsOtherTenants(t *testing.T) {
	h := newTestHub()
	client := registerTestClient(h, "tenant-b", 4)

	h.NotifyTenant("tenant-a", FeedEvent{Type: "escalation", SessionId: "s1"})

	select {
	case <-client.Send:
		t.Fatal("event crossed tenant boundary")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClusterPayloadFromSelfIsSkipped(t *testing.T) {
	h := newTestHub()
	client := registerTestClient(h, "tenant-a", 4)

	msg, _ := json.Marshal(map[string]string{"type": "feed_event"})
	own, _ := json.Marshal(clusterPayload{
		OriginInstanceID: h.instanceId,
		TargetTenantID:   "tenant-a",
		Message:          msg,
	})
	h.handleClusterPayload(own)

	select {
	case <-client.Send:
		t.Fatal("own cluster message was delivered a second time")
	case <-time.After(50 * time.Millisecond):
	}

	foreign, _ := json.Marshal(clusterPayload{
		OriginInstanceID: "some-other-instance",
		TargetTenantID:   "tenant-a",
		Message:          msg,
	})
	h.handleClusterPayload(foreign)

	select {
	case <-client.Send:
	case <-time.After(time.Second):
		t.Fatal("foreign cluster message was not delivered")
	}
}

func TestSlowClientIsDroppedWithoutPanic(t *testing.T) {
	h := newTestHub()
	client := registerTestClient(h, "tenant-a", 1)

	h.NotifyTenant("tenant-a", FeedEvent{Type: "visitor_message", SessionId: "s1"})
	// Buffer is now full; the next event drops the client.
	h.NotifyTenant("tenant-a", FeedEvent{Type: "visitor_message", SessionId: "s1"})

	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-client.Send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond, "Send channel should be drained and closed")
}
