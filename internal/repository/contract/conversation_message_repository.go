package contract

import (
	"context"

	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/repository/specification"
)

type ConversationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConversationMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error)
}
