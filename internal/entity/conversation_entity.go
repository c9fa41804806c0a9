package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the server-held record for one visitor session. The
// (TenantId, VisitorSessionId) pair is unique; the session id itself is
// minted client-side.
type Conversation struct {
	Id               uuid.UUID
	TenantId         uuid.UUID
	VisitorSessionId string
	IsManualMode     bool
	EscalatedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
