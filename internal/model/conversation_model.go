package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId         uuid.UUID  `gorm:"type:uuid;not null;index:idx_conversations_tenant_session,unique"`
	VisitorSessionId string     `gorm:"type:varchar(100);not null;index:idx_conversations_tenant_session,unique"`
	IsManualMode     bool       `gorm:"not null;default:false"`
	EscalatedAt      *time.Time `gorm:""`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}
