package implementation

import (
	"context"
	"errors"

	"botsy-widget-be/internal/entity"
	"botsy-widget-be/internal/mapper"
	"botsy-widget-be/internal/model"
	"botsy-widget-be/internal/repository/contract"
	"botsy-widget-be/internal/repository/specification"

	"gorm.io/gorm"
)

type WidgetConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WidgetConfigMapper
}

func NewWidgetConfigRepository(db *gorm.DB) contract.WidgetConfigRepository {
	return &WidgetConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewWidgetConfigMapper(),
	}
}

func (r *WidgetConfigRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *WidgetConfigRepositoryImpl) Create(ctx context.Context, cfg *entity.WidgetConfig) error {
	m := r.mapper.ToModel(cfg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*cfg = *r.mapper.ToEntity(m)
	return nil
}

func (r *WidgetConfigRepositoryImpl) Update(ctx context.Context, cfg *entity.WidgetConfig) error {
	m := r.mapper.ToModel(cfg)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*cfg = *r.mapper.ToEntity(m)
	return nil
}

func (r *WidgetConfigRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WidgetConfig, error) {
	var m model.WidgetConfig
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
