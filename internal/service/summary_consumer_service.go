package service

import (
	"context"
	"encoding/json"
	"log"

	"botsy-widget-be/internal/dto"
	"botsy-widget-be/internal/pkg/mailer"
	"botsy-widget-be/internal/repository/specification"
	"botsy-widget-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type ISummaryConsumerService interface {
	Consume(ctx context.Context) error
}

// summaryConsumerService drains the transcript summary queue and sends the
// emails. Runs in-process on the watermill gochannel bus.
type summaryConsumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
}

func NewSummaryConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
) ISummaryConsumerService {
	return &summaryConsumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		emailService: emailService,
	}
}

func (cs *summaryConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *summaryConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SummaryJobPayload
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal summary job: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing transcript summary for session: %s", payload.SessionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	cfg, err := uow.WidgetConfigRepository().FindOne(ctx, specification.OwnedByTenant{TenantID: payload.TenantId})
	if err != nil {
		log.Printf("[ERROR] Failed to load widget config for tenant %s: %v", payload.TenantId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if cfg == nil {
		log.Printf("[ERROR] Widget config not found for tenant: %s", payload.TenantId)
		msg.Ack() // Tenant deleted? Ack.
		return
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedByTenant{TenantID: payload.TenantId},
		specification.ByVisitorSession{SessionID: payload.SessionId},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load conversation %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}
	if conversation == nil {
		log.Printf("[ERROR] Conversation not found for session: %s", payload.SessionId)
		msg.Ack()
		return
	}

	rows, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversation.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load messages for session %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}

	lines := make([]mailer.TranscriptLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, mailer.TranscriptLine{
			Role:    row.Role,
			Content: row.Content,
			SentAt:  row.CreatedAt,
		})
	}

	if err := cs.emailService.SendTranscriptSummary(payload.Email, cfg.BusinessName, lines); err != nil {
		log.Printf("[ERROR] Failed to send transcript summary to %s: %v", payload.Email, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Transcript summary sent for session: %s", payload.SessionId)
	msg.Ack()
}
