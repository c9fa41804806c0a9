package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONVERSATION_ESCALATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Conversation lifecycle event codes. Subjects on the bus are
// "conversation.<code>".
const (
	TypeConversationEscalated    = "conversation.escalated"
	TypeConversationAgentReplied = "conversation.agent_replied"
	TypeConversationReleased     = "conversation.released"
)

func NewConversationEscalated(tenantId, conversationId uuid.UUID, sessionId, trigger string) Event {
	return BaseEvent{
		Type: TypeConversationEscalated,
		Data: map[string]interface{}{
			"tenant_id":       tenantId.String(),
			"conversation_id": conversationId.String(),
			"session_id":      sessionId,
			"trigger":         trigger, // "visitor_request" | "model_handoff"
		},
		OccurredAt: time.Now(),
	}
}

func NewConversationAgentReplied(tenantId, conversationId uuid.UUID, sessionId string) Event {
	return BaseEvent{
		Type: TypeConversationAgentReplied,
		Data: map[string]interface{}{
			"tenant_id":       tenantId.String(),
			"conversation_id": conversationId.String(),
			"session_id":      sessionId,
		},
		OccurredAt: time.Now(),
	}
}

func NewConversationReleased(tenantId, conversationId uuid.UUID, sessionId string) Event {
	return BaseEvent{
		Type: TypeConversationReleased,
		Data: map[string]interface{}{
			"tenant_id":       tenantId.String(),
			"conversation_id": conversationId.String(),
			"session_id":      sessionId,
		},
		OccurredAt: time.Now(),
	}
}
