package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WidgetConfig struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	BotName        string         `gorm:"type:varchar(100);not null;default:'Botsy'"`
	BusinessName   string         `gorm:"type:varchar(200);not null"`
	Greeting       string         `gorm:"type:text"`
	PrimaryColor   string         `gorm:"type:varchar(20);not null;default:'#4F46E5'"`
	Position       string         `gorm:"type:varchar(20);not null;default:'bottom-right'"`
	Size           string         `gorm:"type:varchar(20);not null;default:'medium'"`
	Animation      string         `gorm:"type:varchar(30);not null;default:'slide-up'"`
	LogoURL        string         `gorm:"type:text"`
	NotifyEmail    string         `gorm:"type:varchar(255)"`
	IsEnabled      bool           `gorm:"not null;default:true"`
	AllowedDomains datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (WidgetConfig) TableName() string {
	return "widget_configs"
}
