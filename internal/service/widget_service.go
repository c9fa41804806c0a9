package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
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
	"botsy-widget-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// historyWindow caps how many prior messages are replayed into the model
// prompt on each turn.
const historyWindow = 20

// EventPublisher is the slice of the NATS publisher the widget service needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IWidgetService is the public widget API: everything here is reachable
// without authentication, scoped only by tenant id.
type IWidgetService interface {
	GetConfig(ctx context.Context, tenantId uuid.UUID) (*dto.WidgetConfigResponse, error)
	SendChat(ctx context.Context, request *dto.SendWidgetChatRequest) (*dto.SendWidgetChatResponse, error)
	GetHistory(ctx context.Context, tenantId uuid.UUID, sessionId string) (*dto.WidgetHistoryResponse, error)
	RequestEmailSummary(ctx context.Context, request *dto.EmailSummaryRequest) error
}

type widgetService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	presenceRepo   *memory.PresenceRepository
	eventPublisher EventPublisher
	hub            *websocket.Hub
	pubSub         *gochannel.GoChannel
	summaryTopic   string
	configCache    *cache.Cache
	logger         logger.ILogger
}

func NewWidgetService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	presenceRepo *memory.PresenceRepository,
	eventPublisher EventPublisher,
	hub *websocket.Hub,
	pubSub *gochannel.GoChannel,
	summaryTopic string,
	configSyncSec int,
	log logger.ILogger,
) IWidgetService {
	ttl := time.Duration(configSyncSec) * time.Second
	return &widgetService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		presenceRepo:   presenceRepo,
		eventPublisher: eventPublisher,
		hub:            hub,
		pubSub:         pubSub,
		summaryTopic:   summaryTopic,
		configCache:    cache.New(ttl, 2*ttl),
		logger:         log,
	}
}

// GetConfig returns the display-only widget settings. Cached so a fleet of
// widgets polling every sync interval doesn't hammer the database.
func (ws *widgetService) GetConfig(ctx context.Context, tenantId uuid.UUID) (*dto.WidgetConfigResponse, error) {
	cfg, err := ws.loadConfig(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	return &dto.WidgetConfigResponse{
		BotName:      cfg.BotName,
		Greeting:     cfg.Greeting,
		PrimaryColor: cfg.PrimaryColor,
		Position:     cfg.Position,
		Size:         cfg.Size,
		Animation:    cfg.Animation,
		LogoURL:      cfg.LogoURL,
		IsEnabled:    cfg.IsEnabled,
	}, nil
}

// SendChat is the main visitor turn. In manual mode the message is stored for
// the agent and no reply is produced; otherwise the model answers, and an
// escalation (visitor phrase or model handoff token) flips the conversation
// to manual mode.
func (ws *widgetService) SendChat(ctx context.Context, request *dto.SendWidgetChatRequest) (*dto.SendWidgetChatResponse, error) {
	if err := serverutils.ValidateRequest(request); err != nil {
		return nil, err
	}

	cfg, err := ws.loadConfig(ctx, request.TenantId)
	if err != nil {
		return nil, err
	}
	if !cfg.IsEnabled {
		return nil, fmt.Errorf("widget is disabled for this tenant")
	}

	uow := ws.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	conversation, err := ws.findOrCreateConversation(ctx, uow, request.TenantId, request.SessionId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMessage := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatMessageRoleUser,
		Content:        request.Message,
		CreatedAt:      now,
	}
	if err := uow.ConversationMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	// Manual mode: the agent answers via the history poll, not this response.
	if conversation.IsManualMode {
		if err := uow.Commit(); err != nil {
			return nil, err
		}
		ws.afterTurn(request.TenantId, request.SessionId, true, websocket.FeedEvent{
			Type:      "visitor_message",
			SessionId: request.SessionId,
			Content:   request.Message,
		})
		return &dto.SendWidgetChatResponse{
			Reply:        "",
			IsManualMode: true,
			Escalated:    false,
		}, nil
	}

	// Visitor asked for a human directly. Skip the model entirely.
	if matchesHandoffPhrase(request.Message) {
		return ws.escalate(ctx, uow, conversation, request, "visitor_request", constant.HandoffAckMessage)
	}

	history, err := ws.loadModelHistory(ctx, uow, conversation.Id)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(constant.SystemPromptV1, cfg.BotName, cfg.BusinessName)
	messages := append([]llm.Message{{Role: constant.ChatMessageRoleSystem, Content: prompt}}, history...)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: request.Message})

	reply, err := ws.llmProvider.Chat(ctx, messages)
	if err != nil {
		ws.logger.Error("WidgetService", "LLM call failed", map[string]interface{}{
			"tenant_id": request.TenantId,
			"error":     err.Error(),
		})
		return nil, err
	}

	// Model decided it cannot help. The handoff token never reaches the
	// visitor; the email-summary token is left in for the widget to handle.
	if strings.Contains(reply, constant.HandoffMarker) {
		ack := strings.TrimSpace(strings.ReplaceAll(reply, constant.HandoffMarker, ""))
		if ack == "" {
			ack = constant.HandoffAckMessage
		}
		return ws.escalate(ctx, uow, conversation, request, "model_handoff", ack)
	}

	assistantMessage := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatMessageRoleAssistant,
		Content:        reply,
		CreatedAt:      time.Now(),
	}
	if err := uow.ConversationMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	ws.afterTurn(request.TenantId, request.SessionId, false, websocket.FeedEvent{
		Type:      "visitor_message",
		SessionId: request.SessionId,
		Content:   request.Message,
	})

	return &dto.SendWidgetChatResponse{
		Reply:        reply,
		IsManualMode: false,
		Escalated:    false,
	}, nil
}

// GetHistory returns the full authoritative log for a session in ascending
// order. The widget merges it client-side; the server never trims.
func (ws *widgetService) GetHistory(ctx context.Context, tenantId uuid.UUID, sessionId string) (*dto.WidgetHistoryResponse, error) {
	uow := ws.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedByTenant{TenantID: tenantId},
		specification.ByVisitorSession{SessionID: sessionId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		// A fresh session that has not chatted yet has no server log.
		return &dto.WidgetHistoryResponse{Messages: []dto.HistoryMessage{}}, nil
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversation.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]dto.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		result = append(result, dto.HistoryMessage{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			IsManual:  m.IsManual,
			CreatedAt: m.CreatedAt,
		})
	}

	ws.presenceRepo.Touch(tenantId, sessionId, conversation.IsManualMode)

	return &dto.WidgetHistoryResponse{
		Messages:     result,
		IsManualMode: conversation.IsManualMode,
	}, nil
}

// RequestEmailSummary enqueues a transcript email job. Rendering and SMTP
// happen in the consumer so the widget request returns immediately.
func (ws *widgetService) RequestEmailSummary(ctx context.Context, request *dto.EmailSummaryRequest) error {
	if err := serverutils.ValidateRequest(request); err != nil {
		return err
	}

	uow := ws.uowFactory.NewUnitOfWork(ctx)
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

	payload, err := json.Marshal(dto.SummaryJobPayload{
		TenantId:  request.TenantId,
		SessionId: request.SessionId,
		Email:     request.Email,
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := ws.pubSub.Publish(ws.summaryTopic, msg); err != nil {
		return err
	}

	ws.logger.Info("WidgetService", "Summary job queued", map[string]interface{}{
		"tenant_id":  request.TenantId,
		"session_id": request.SessionId,
	})
	return nil
}

// --- internals ---

func (ws *widgetService) loadConfig(ctx context.Context, tenantId uuid.UUID) (*entity.WidgetConfig, error) {
	if cached, found := ws.configCache.Get(tenantId.String()); found {
		return cached.(*entity.WidgetConfig), nil
	}

	uow := ws.uowFactory.NewUnitOfWork(ctx)
	cfg, err := uow.WidgetConfigRepository().FindOne(ctx, specification.OwnedByTenant{TenantID: tenantId})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &serverutils.NotFoundError{Resource: "widget config"}
	}

	ws.configCache.Set(tenantId.String(), cfg, cache.DefaultExpiration)
	return cfg, nil
}

func (ws *widgetService) findOrCreateConversation(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, sessionId string) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedByTenant{TenantID: tenantId},
		specification.ByVisitorSession{SessionID: sessionId},
	)
	if err != nil {
		return nil, err
	}
	if conversation != nil {
		return conversation, nil
	}

	conversation = &entity.Conversation{
		Id:               uuid.New(),
		TenantId:         tenantId,
		VisitorSessionId: sessionId,
		CreatedAt:        time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (ws *widgetService) loadModelHistory(ctx context.Context, uow unitofwork.UnitOfWork, conversationId uuid.UUID) ([]llm.Message, error) {
	// Newest first, then reversed, so the window holds the latest turns.
	rows, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: historyWindow},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history, llm.Message{Role: rows[i].Role, Content: rows[i].Content})
	}
	return history, nil
}

// escalate flips the conversation to manual mode, stores the acknowledgement
// as a regular bot message and fans the escalation out to agents.
func (ws *widgetService) escalate(ctx context.Context, uow unitofwork.UnitOfWork, conversation *entity.Conversation, request *dto.SendWidgetChatRequest, trigger, ack string) (*dto.SendWidgetChatResponse, error) {
	now := time.Now()
	conversation.IsManualMode = true
	conversation.EscalatedAt = &now
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return nil, err
	}

	ackMessage := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatMessageRoleAssistant,
		Content:        ack,
		CreatedAt:      now,
	}
	if err := uow.ConversationMessageRepository().Create(ctx, ackMessage); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := ws.eventPublisher.Publish(ctx, events.NewConversationEscalated(request.TenantId, conversation.Id, request.SessionId, trigger)); err != nil {
		ws.logger.Error("WidgetService", "Failed to publish escalation event", map[string]interface{}{
			"tenant_id": request.TenantId,
			"error":     err.Error(),
		})
	}

	ws.afterTurn(request.TenantId, request.SessionId, true, websocket.FeedEvent{
		Type:      "escalation",
		SessionId: request.SessionId,
		Content:   request.Message,
	})

	ws.logger.Info("WidgetService", "Conversation escalated", map[string]interface{}{
		"tenant_id":  request.TenantId,
		"session_id": request.SessionId,
		"trigger":    trigger,
	})

	return &dto.SendWidgetChatResponse{
		Reply:        ack,
		IsManualMode: true,
		Escalated:    true,
	}, nil
}

func (ws *widgetService) afterTurn(tenantId uuid.UUID, sessionId string, isManual bool, event websocket.FeedEvent) {
	ws.presenceRepo.Touch(tenantId, sessionId, isManual)
	if ws.hub != nil {
		ws.hub.NotifyTenant(tenantId.String(), event)
	}
}

func matchesHandoffPhrase(msg string) bool {
	lowered := strings.ToLower(msg)
	for _, phrase := range constant.HandoffPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
