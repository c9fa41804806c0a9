package dto

import (
	"time"

	"github.com/google/uuid"
)

// WidgetConfigResponse is the display-only view the widget polls. Greeting is
// included so the client can seed the transcript; everything else is visual.
type WidgetConfigResponse struct {
	BotName      string `json:"bot_name"`
	Greeting     string `json:"greeting"`
	PrimaryColor string `json:"primary_color"`
	Position     string `json:"position"`
	Size         string `json:"size"`
	Animation    string `json:"animation"`
	LogoURL      string `json:"logo_url"`
	IsEnabled    bool   `json:"is_enabled"`
}

type SendWidgetChatRequest struct {
	TenantId  uuid.UUID `json:"tenant_id" validate:"required"`
	SessionId string    `json:"session_id" validate:"required,max=100"`
	Message   string    `json:"message" validate:"required,max=4000"`
}

// SendWidgetChatResponse flags gate what the widget appends: when
// IsManualMode is true and Escalated is false the reply is empty and the
// human agent's answer arrives via the history poll instead.
type SendWidgetChatResponse struct {
	Reply        string `json:"reply"`
	IsManualMode bool   `json:"is_manual_mode"`
	Escalated    bool   `json:"escalated"`
}

type HistoryMessage struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	IsManual  bool      `json:"is_manual"`
	CreatedAt time.Time `json:"created_at"`
}

// WidgetHistoryResponse carries the full server-side log plus the manual-mode
// flag so the widget can resync both in one poll.
type WidgetHistoryResponse struct {
	Messages     []HistoryMessage `json:"messages"`
	IsManualMode bool             `json:"is_manual_mode"`
}

type EmailSummaryRequest struct {
	TenantId  uuid.UUID `json:"tenant_id" validate:"required"`
	SessionId string    `json:"session_id" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
}

// SummaryJobPayload travels over the in-process bus from the summary endpoint
// to the consumer that renders and sends the email.
type SummaryJobPayload struct {
	TenantId  uuid.UUID `json:"tenant_id"`
	SessionId string    `json:"session_id"`
	Email     string    `json:"email"`
}
