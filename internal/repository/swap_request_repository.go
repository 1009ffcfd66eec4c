package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/model"
)

type SwapRequestRepository interface {
	// Найти заявку по ID.
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)
	// Заявки, где пользователь — инициатор или адресат, новые первыми.
	ListByUser(ctx context.Context, userID string) ([]model.SwapRequest, error)
}

type GormSwapRequestRepository struct {
	db *gorm.DB
}

func NewGormSwapRequestRepository(db *gorm.DB) *GormSwapRequestRepository {
	return &GormSwapRequestRepository{db: db}
}

func (r *GormSwapRequestRepository) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	var req model.SwapRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormSwapRequestRepository) ListByUser(ctx context.Context, userID string) ([]model.SwapRequest, error) {
	var reqs []model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR target_id = ?", userID, userID).
		Preload("Requester").
		Preload("Target").
		Preload("RequesterSlot").
		Preload("TargetSlot").
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}
