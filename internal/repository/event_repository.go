package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/model"
)

type EventRepository interface {
	// События по заявке, старые первыми.
	ListByRequest(ctx context.Context, requestID string) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) ListByRequest(ctx context.Context, requestID string) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("swap_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
