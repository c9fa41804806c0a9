package integration

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"botsy-widget-be/internal/bootstrap"
	"botsy-widget-be/internal/config"
	"botsy-widget-be/internal/dto"
	"botsy-widget-be/internal/model"
	"botsy-widget-be/internal/pkg/serverutils"
	"botsy-widget-be/internal/server"
	"botsy-widget-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestWidgetFlow(t *testing.T) {
	// Setup
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	cfg := config.Load()

	if cfg.Db.Connection == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(cfg.Db.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	// 1. Seed Widget Config
	tenantId := uuid.New()
	widgetConfig := model.WidgetConfig{
		Id:           uuid.New(),
		TenantId:     tenantId,
		BotName:      "Botsy Test",
		BusinessName: "Acme Integration Co",
		Greeting:     "Hi! How can we help?",
		PrimaryColor: "#4F46E5",
		Position:     "bottom-right",
		Size:         "medium",
		Animation:    "slide-up",
		IsEnabled:    true,
		CreatedAt:    time.Now(),
	}
	db.Create(&widgetConfig)

	sessionId := "it-session-" + uuid.NewString()[:8]

	defer func() {
		// Cleanup
		var conversation model.Conversation
		if db.Where("tenant_id = ? AND visitor_session_id = ?", tenantId, sessionId).First(&conversation).Error == nil {
			db.Where("conversation_id = ?", conversation.Id).Delete(&model.ConversationMessage{})
			db.Delete(&model.Conversation{}, conversation.Id)
		}
		db.Delete(&model.WidgetConfig{}, widgetConfig.Id)
	}()

	t.Run("Config endpoint returns display settings", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/widget/v1/config/"+tenantId.String(), nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.WidgetConfigResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Equal(t, "Botsy Test", result.Data.BotName)
		assert.Equal(t, "Hi! How can we help?", result.Data.Greeting)
		assert.True(t, result.Data.IsEnabled)
	})

	t.Run("Config endpoint 404 for unknown tenant", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/widget/v1/config/"+uuid.NewString(), nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("Handoff phrase escalates without calling the model", func(t *testing.T) {
		reqBody := dto.SendWidgetChatRequest{
			TenantId:  tenantId,
			SessionId: sessionId,
			Message:   "I want to talk to a human please",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/widget/v1/chat", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.SendWidgetChatResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.True(t, result.Data.IsManualMode)
		assert.True(t, result.Data.Escalated)
		assert.NotEmpty(t, result.Data.Reply)
	})

	t.Run("Manual mode stores the message and suppresses the bot", func(t *testing.T) {
		reqBody := dto.SendWidgetChatRequest{
			TenantId:  tenantId,
			SessionId: sessionId,
			Message:   "my order number is 12345",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/widget/v1/chat", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.SendWidgetChatResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Data.IsManualMode)
		assert.False(t, result.Data.Escalated)
		assert.Empty(t, result.Data.Reply)
	})

	t.Run("History returns the full log with the manual flag", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/widget/v1/history/"+tenantId.String()+"/"+sessionId, nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.WidgetHistoryResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Data.IsManualMode)
		// visitor msg + escalation ack + second visitor msg
		assert.GreaterOrEqual(t, len(result.Data.Messages), 3)
	})

	t.Run("Validation failure returns 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/widget/v1/chat", strings.NewReader(`{"tenant_id":"`+tenantId.String()+`"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 400, resp.StatusCode)
	})
}
