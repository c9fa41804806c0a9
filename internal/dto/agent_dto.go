package dto

import (
	"time"

	"github.com/google/uuid"
)

type AgentReplyRequest struct {
	TenantId  uuid.UUID `json:"tenant_id" validate:"required"`
	SessionId string    `json:"session_id" validate:"required,max=100"`
	Message   string    `json:"message" validate:"required,max=4000"`
}

type AgentReplyResponse struct {
	MessageId      uuid.UUID `json:"message_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	IsManualMode   bool      `json:"is_manual_mode"`
}

type ReleaseConversationRequest struct {
	TenantId  uuid.UUID `json:"tenant_id" validate:"required"`
	SessionId string    `json:"session_id" validate:"required,max=100"`
}

// LiveSessionResponse is one row of the dashboard's "who is on the site"
// list, backed by the presence cache rather than the database.
type LiveSessionResponse struct {
	SessionId    string    `json:"session_id"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	IsManualMode bool      `json:"is_manual_mode"`
}
