package service

import (
	"context"
	"fmt"

	"botsy-widget-be/internal/pkg/logger"
	"botsy-widget-be/internal/pkg/mailer"
	"botsy-widget-be/internal/repository/specification"
	"botsy-widget-be/internal/repository/unitofwork"
	"botsy-widget-be/pkg/events"
	"botsy-widget-be/pkg/nats"

	"github.com/google/uuid"
)

type IAlertService interface {
	Start() error
}

// alertService listens for escalation events on the bus and emails the
// tenant's notify address. Runs as a durable consumer so alerts survive a
// restart between escalation and delivery.
type alertService struct {
	subscriber   *nats.Subscriber
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	dashboardURL string
	logger       logger.ILogger
}

func NewAlertService(
	subscriber *nats.Subscriber,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	dashboardURL string,
	log logger.ILogger,
) IAlertService {
	return &alertService{
		subscriber:   subscriber,
		uowFactory:   uowFactory,
		emailService: emailService,
		dashboardURL: dashboardURL,
		logger:       log,
	}
}

func (as *alertService) Start() error {
	return as.subscriber.Subscribe(events.TypeConversationEscalated, "escalation-alerts", as.handleEscalation)
}

func (as *alertService) handleEscalation(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	tenantIdRaw, _ := payload["tenant_id"].(string)
	sessionId, _ := payload["session_id"].(string)

	tenantId, err := uuid.Parse(tenantIdRaw)
	if err != nil {
		// Malformed event, retrying will not help
		as.logger.Warn("AlertService", "Dropping escalation event with bad tenant id", map[string]interface{}{
			"tenant_id": tenantIdRaw,
		})
		return nil
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)
	cfg, err := uow.WidgetConfigRepository().FindOne(ctx, specification.OwnedByTenant{TenantID: tenantId})
	if err != nil {
		return fmt.Errorf("load widget config: %w", err)
	}
	if cfg == nil || cfg.NotifyEmail == "" {
		// Nothing to notify; ack and move on
		return nil
	}

	if err := as.emailService.SendEscalationAlert(cfg.NotifyEmail, cfg.BusinessName, sessionId, as.dashboardURL); err != nil {
		return fmt.Errorf("send escalation alert: %w", err)
	}

	as.logger.Info("AlertService", "Escalation alert sent", map[string]interface{}{
		"tenant_id":  tenantId,
		"session_id": sessionId,
	})
	return nil
}
