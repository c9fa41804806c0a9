package bootstrap

import (
	"context"
	"log"

	"botsy-widget-be/internal/config"
	"botsy-widget-be/internal/controller"
	"botsy-widget-be/internal/pkg/logger"
	"botsy-widget-be/internal/pkg/mailer"
	"botsy-widget-be/internal/repository/memory"
	"botsy-widget-be/internal/repository/unitofwork"
	"botsy-widget-be/internal/service"
	"botsy-widget-be/internal/websocket"
	"botsy-widget-be/pkg/llm/factory"

	pktNats "botsy-widget-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WidgetController controller.IWidgetController
	AgentController  controller.IAgentController

	// Background Services (Exposed for main.go to run)
	SummaryConsumerService service.ISummaryConsumerService
	AlertService           service.IAlertService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.GroqBaseURL,
		cfg.Keys.Groq,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Initialize In-Memory Presence Storage
	presenceRepo := memory.NewPresenceRepository()

	// 2.5 Infrastructure (Moved up for dependency injection)
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/livefeed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	widgetService := service.NewWidgetService(
		uowFactory,
		llmProvider,
		presenceRepo,
		natsPub,
		wsHub,
		pubSub,
		cfg.Keys.SummaryTopic,
		cfg.Widget.ConfigSyncSec,
		sysLogger,
	)
	agentService := service.NewAgentService(
		uowFactory,
		presenceRepo,
		natsPub,
		wsHub,
		sysLogger,
	)

	summaryConsumerService := service.NewSummaryConsumerService(
		pubSub,
		cfg.Keys.SummaryTopic,
		uowFactory,
		emailService,
	)

	alertService := service.NewAlertService(
		natsSub,
		uowFactory,
		emailService,
		cfg.App.DashboardURL,
		sysLogger,
	)

	// Start Service (Worker)
	if natsSub != nil {
		if err := alertService.Start(); err != nil {
			log.Printf("[WARN] Failed to start alert service: %v", err)
		}
	}

	// 4. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		WidgetController: controller.NewWidgetController(widgetService),
		AgentController:  controller.NewAgentController(agentService, wsHub),

		SummaryConsumerService: summaryConsumerService,
		AlertService:           alertService,

		WebSocketHub: wsHub,
	}
}
