package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedByTenant scopes queries to one tenant. Every widget/agent query must
// carry this to keep tenants isolated.
type OwnedByTenant struct {
	TenantID uuid.UUID
}

func (s OwnedByTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// ByVisitorSession filters conversations by the client-minted session id.
type ByVisitorSession struct {
	SessionID string
}

func (s ByVisitorSession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("visitor_session_id = ?", s.SessionID)
}

// ByConversationID filters messages by their parent conversation.
type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}
