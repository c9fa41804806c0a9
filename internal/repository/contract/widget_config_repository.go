package contract

import (
	"context"

	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/repository/specification"
)

type WidgetConfigRepository interface {
	Create(ctx context.Context, cfg *entity.WidgetConfig) error
	Update(ctx context.Context, cfg *entity.WidgetConfig) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WidgetConfig, error)
}
