package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/model"
)

type SlotRepository interface {
	// Слоты владельца, по возрастанию времени начала.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error)
	// SWAPPABLE-слоты владельца.
	ListSwappableByOwner(ctx context.Context, ownerID string) ([]model.Slot, error)
	// Маркетплейс: SWAPPABLE-слоты всех остальных пользователей,
	// новые первыми, с предзагруженным владельцем.
	ListMarketplace(ctx context.Context, excludeOwnerID string) ([]model.Slot, error)
	// Найти слот по ID.
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	// Создать слот.
	Create(ctx context.Context, slot *model.Slot) error
	// Применить изменённые колонки условным UPDATE: слот должен
	// существовать, принадлежать владельцу и не быть в SWAP_PENDING.
	// Возвращает число затронутых строк.
	UpdateAttrs(ctx context.Context, slotID, ownerID uuid.UUID, attrs map[string]any) (int64, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListSwappableByOwner(ctx context.Context, ownerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("status = ?", model.SlotStatusSwappable).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListMarketplace(ctx context.Context, excludeOwnerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("owner_id <> ?", excludeOwnerID).
		Where("status = ?", model.SlotStatusSwappable).
		Preload("Owner").
		Order("created_at DESC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) UpdateAttrs(ctx context.Context, slotID, ownerID uuid.UUID, attrs map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Slot{}).
		Where("id = ? AND owner_id = ? AND status <> ?", slotID, ownerID, model.SlotStatusSwapPending).
		Updates(attrs)
	return res.RowsAffected, res.Error
}
