package mapper

import (
	"time"

	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

// Conversation Mappers

func (m *ConversationMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:               c.Id,
		TenantId:         c.TenantId,
		VisitorSessionId: c.VisitorSessionId,
		IsManualMode:     c.IsManualMode,
		EscalatedAt:      c.EscalatedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *ConversationMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:               c.Id,
		TenantId:         c.TenantId,
		VisitorSessionId: c.VisitorSessionId,
		IsManualMode:     c.IsManualMode,
		EscalatedAt:      c.EscalatedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

// Message Mappers

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) *entity.ConversationMessage {
	if msg == nil {
		return nil
	}

	return &entity.ConversationMessage{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		IsManual:       msg.IsManual,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.ConversationMessage) *model.ConversationMessage {
	if msg == nil {
		return nil
	}

	return &model.ConversationMessage{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		IsManual:       msg.IsManual,
		CreatedAt:      msg.CreatedAt,
	}
}
