package service

import (
	"context"
	"time"

	"botsy-widget-be/internal/constant"
	"botsy-widget-be/internal/dto"
	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/pkg/logger"
	"botsy-widget-be/internal/pkg/serverutils"
	"botsy-widget-be/internal/repository/memory"
	"botsy-widget-be/internal/repository/specification"
	"botsy-widget-be/internal/repository/unitofwork"
	"botsy-widget-be/internal/websocket"
	"botsy-widget-be/pkg/events"

	"github.com/google/uuid"
)

// IAgentService backs the authenticated dashboard API.
type IAgentService interface {
	Reply(ctx context.Context, request *dto.AgentReplyRequest) (*dto.AgentReplyResponse, error)
	Release(ctx context.Context, request *dto.ReleaseConversationRequest) error
	LiveSessions(ctx context.Context, tenantId uuid.UUID) ([]*dto.LiveSessionResponse, error)
}

type agentService struct {
	uowFactory     unitofwork.RepositoryFactory
	presenceRepo   *memory.PresenceRepository
	eventPublisher EventPublisher
	hub            *websocket.Hub
	logger         logger.ILogger
}

func NewAgentService(
	uowFactory unitofwork.RepositoryFactory,
	presenceRepo *memory.PresenceRepository,
	eventPublisher EventPublisher,
	hub *websocket.Hub,
	log logger.ILogger,
) IAgentService {
	return &agentService{
		uowFactory:     uowFactory,
		presenceRepo:   presenceRepo,
		eventPublisher: eventPublisher,
		hub:            hub,
		logger:         log,
	}
}

// Reply stores a human message in the log. A reply always forces manual mode
// so the bot stays out of the conversation afterwards.
func (as *agentService) Reply(ctx context.Context, request *dto.AgentReplyRequest) (*dto.AgentReplyResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedByTenant{TenantID: request.TenantId},
		specification.ByVisitorSession{SessionID: request.SessionId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, &serverutils.NotFoundError{Resource: "conversation"}
	}

	now := time.Now()
	if !conversation.IsManualMode {
		conversation.IsManualMode = true
		conversation.EscalatedAt = &now
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			return nil, err
		}
	}

	reply := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatMessageRoleAssistant,
		Content:        request.Message,
		IsManual:       true,
		CreatedAt:      now,
	}
	if err := uow.ConversationMessageRepository().Create(ctx, reply); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := as.eventPublisher.Publish(ctx, events.NewConversationAgentReplied(request.TenantId, conversation.Id, request.SessionId)); err != nil {
		as.logger.Error("AgentService", "Failed to publish agent reply event", map[string]interface{}{
			"tenant_id": request.TenantId,
			"error":     err.Error(),
		})
	}

	if as.hub != nil {
		as.hub.NotifyTenant(request.TenantId.String(), websocket.FeedEvent{
			Type:      "agent_reply",
			SessionId: request.SessionId,
			Content:   request.Message,
		})
	}

	as.presenceRepo.Touch(request.TenantId, request.SessionId, true)

	return &dto.AgentReplyResponse{
		MessageId:      reply.Id,
		ConversationId: conversation.Id,
		IsManualMode:   true,
	}, nil
}

// Release hands the conversation back to the bot.
func (as *agentService) Release(ctx context.Context, request *dto.ReleaseConversationRequest) error {
	if err := serverutils.ValidateRequest(request); err != nil {
		return err
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedByTenant{TenantID: request.TenantId},
		specification.ByVisitorSession{SessionID: request.SessionId},
	)
	if err != nil {
		return err
	}
	if conversation == nil {
		return &serverutils.NotFoundError{Resource: "conversation"}
	}

	conversation.IsManualMode = false
	conversation.EscalatedAt = nil
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if err := as.eventPublisher.Publish(ctx, events.NewConversationReleased(request.TenantId, conversation.Id, request.SessionId)); err != nil {
		as.logger.Error("AgentService", "Failed to publish release event", map[string]interface{}{
			"tenant_id": request.TenantId,
			"error":     err.Error(),
		})
	}

	if as.hub != nil {
		as.hub.NotifyTenant(request.TenantId.String(), websocket.FeedEvent{
			Type:      "released",
			SessionId: request.SessionId,
		})
	}

	as.presenceRepo.Touch(request.TenantId, request.SessionId, false)

	as.logger.Info("AgentService", "Conversation released to bot", map[string]interface{}{
		"tenant_id":  request.TenantId,
		"session_id": request.SessionId,
	})
	return nil
}

// LiveSessions lists visitors active within the presence TTL.
func (as *agentService) LiveSessions(ctx context.Context, tenantId uuid.UUID) ([]*dto.LiveSessionResponse, error) {
	presences := as.presenceRepo.GetByTenant(tenantId)

	result := make([]*dto.LiveSessionResponse, 0, len(presences))
	for _, p := range presences {
		result = append(result, &dto.LiveSessionResponse{
			SessionId:    p.SessionId,
			LastSeenAt:   p.LastSeenAt,
			IsManualMode: p.IsManualMode,
		})
	}
	return result, nil
}
