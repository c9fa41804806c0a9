package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"botsy-widget-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FeedEvent is what agent dashboards receive over the live feed.
type FeedEvent struct {
	Type      string `json:"type"` // "visitor_message", "escalation", "agent_reply", "released"
	SessionId string `json:"session_id"`
	Content   string `json:"content,omitempty"`
}

// clusterPayload is the envelope published on the redis fanout channel. The
// origin id lets instances ignore their own messages, which they already
// delivered locally.
type clusterPayload struct {
	OriginInstanceID string          `json:"origin_instance_id"`
	TargetTenantID   string          `json:"target_tenant_id"`
	Message          json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients map: TenantID -> List of Clients (multi-agent)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Identifies this process on the fanout channel
	instanceId string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TenantID] = append(h.clients[client.TenantID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Agent client registered", map[string]interface{}{"tenant_id": client.TenantID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TenantID]; ok {
				for i, c := range clients {
					if c == client {
						// Remove from slice
						h.clients[client.TenantID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.TenantID]) == 0 {
					delete(h.clients, client.TenantID)
					h.logger.Info("Hub", "Tenant feed completely unregistered", map[string]interface{}{"tenant_id": client.TenantID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyTenant sends a feed event to every dashboard connected for this tenant.
func (h *Hub) NotifyTenant(tenantId string, event FeedEvent) {
	// 1. Serialize
	data, _ := json.Marshal(map[string]interface{}{
		"type": "feed_event",
		"data": event,
	})

	// 2. Deliver locally
	h.deliverLocal(tenantId, data)

	// 3. Publish to Redis so agents connected to other instances hear it too
	if h.rdb != nil {
		jsonPayload, _ := json.Marshal(clusterPayload{
			OriginInstanceID: h.instanceId,
			TargetTenantID:   tenantId,
			Message:          data,
		})
		h.rdb.Publish(context.Background(), "botsy_cluster_events", jsonPayload)
	}
}

// deliverLocal fans a serialized message out to this instance's clients for
// the tenant. A full buffer drops the client; Run owns closing Send.
func (h *Hub) deliverLocal(tenantId string, data []byte) {
	h.mu.RLock()
	clients, found := h.clients[tenantId]
	h.mu.RUnlock()

	if !found {
		return
	}
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"tenant_id": tenantId})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "botsy_cluster_events". When a message
	// arrives, deliver it to any locally connected clients for the target
	// tenant and ignore the rest.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "botsy_cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		h.handleClusterPayload([]byte(msg.Payload))
	}
}

// handleClusterPayload processes one message off the fanout channel. Messages
// this instance published are skipped: local clients already got them.
func (h *Hub) handleClusterPayload(raw []byte) {
	var payload clusterPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("Redis msg parse error: %v", err)
		return
	}
	if payload.OriginInstanceID == h.instanceId {
		return
	}
	h.deliverLocal(payload.TargetTenantID, payload.Message)
}
