package entity

import (
	"time"

	"github.com/google/uuid"
)

// WidgetConfig is the tenant's widget appearance and behavior settings.
// Written by the admin dashboard, read-only for the widget.
type WidgetConfig struct {
	Id             uuid.UUID
	TenantId       uuid.UUID
	BotName        string
	BusinessName   string
	Greeting       string
	PrimaryColor   string
	Position       string // "bottom-right" | "bottom-left"
	Size           string // "small" | "medium" | "large"
	Animation      string
	LogoURL        string
	NotifyEmail    string // Escalation alerts go here
	IsEnabled      bool
	AllowedDomains []string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
