package mapper

import (
	"encoding/json"
	"time"

	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/model"

	"gorm.io/datatypes"
)

type WidgetConfigMapper struct{}

func NewWidgetConfigMapper() *WidgetConfigMapper {
	return &WidgetConfigMapper{}
}

func (m *WidgetConfigMapper) ToEntity(c *model.WidgetConfig) *entity.WidgetConfig {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var domains []string
	if len(c.AllowedDomains) > 0 {
		// Corrupt JSON degrades to an empty allow-list, not an error
		_ = json.Unmarshal(c.AllowedDomains, &domains)
	}

	return &entity.WidgetConfig{
		Id:             c.Id,
		TenantId:       c.TenantId,
		BotName:        c.BotName,
		BusinessName:   c.BusinessName,
		Greeting:       c.Greeting,
		PrimaryColor:   c.PrimaryColor,
		Position:       c.Position,
		Size:           c.Size,
		Animation:      c.Animation,
		LogoURL:        c.LogoURL,
		NotifyEmail:    c.NotifyEmail,
		IsEnabled:      c.IsEnabled,
		AllowedDomains: domains,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *WidgetConfigMapper) ToModel(c *entity.WidgetConfig) *model.WidgetConfig {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var domains datatypes.JSON
	if len(c.AllowedDomains) > 0 {
		raw, err := json.Marshal(c.AllowedDomains)
		if err == nil {
			domains = raw
		}
	}

	return &model.WidgetConfig{
		Id:             c.Id,
		TenantId:       c.TenantId,
		BotName:        c.BotName,
		BusinessName:   c.BusinessName,
		Greeting:       c.Greeting,
		PrimaryColor:   c.PrimaryColor,
		Position:       c.Position,
		Size:           c.Size,
		Animation:      c.Animation,
		LogoURL:        c.LogoURL,
		NotifyEmail:    c.NotifyEmail,
		IsEnabled:      c.IsEnabled,
		AllowedDomains: domains,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
