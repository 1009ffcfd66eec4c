package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/calendar"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/repository"
)

// SlotService — CRUD календарных слотов владельца и чтение маркетплейса.
// Все переходы статусов идут через SwapService.
type SlotService struct {
	slotRepo repository.SlotRepository
}

func NewSlotService(slotRepo repository.SlotRepository) *SlotService {
	return &SlotService{slotRepo: slotRepo}
}

// CreateSlot создаёт слот в статусе BUSY.
func (s *SlotService) CreateSlot(ctx context.Context, ownerID uuid.UUID, title string, startsAt, endsAt time.Time, description string) (*model.Slot, error) {
	if title == "" {
		return nil, apperr.InvalidArg("title is required")
	}
	if _, err := calendar.NewTimeRange(startsAt, endsAt); err != nil {
		return nil, apperr.InvalidArg("end must be after start")
	}

	slot := &model.Slot{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		StartsAt:    startsAt.UTC(),
		EndsAt:      endsAt.UTC(),
		Status:      model.SlotStatusBusy,
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// SlotUpdate — изменяемые атрибуты слота. nil-поле не трогаем.
type SlotUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// UpdateSlot правит атрибуты слота владельца. Слот в SWAP_PENDING
// редактировать нельзя. Запись условная и затрагивает только изменённые
// колонки: статус слота этот путь не переписывает никогда, поэтому
// гонка с ProposeSwap не может вернуть слот из SWAP_PENDING.
func (s *SlotService) UpdateSlot(ctx context.Context, slotID, userID string, upd SlotUpdate) (*model.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("slot not found")
		}
		return nil, err
	}
	if slot.OwnerID.String() != userID {
		return nil, apperr.NotOwner("slot does not belong to user")
	}
	if slot.Status == model.SlotStatusSwapPending {
		return nil, apperr.SlotLocked("slot is part of a pending swap")
	}

	attrs := make(map[string]any)
	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, apperr.InvalidArg("title is required")
		}
		slot.Title = *upd.Title
		attrs["title"] = slot.Title
	}
	if upd.Description != nil {
		slot.Description = *upd.Description
		attrs["description"] = slot.Description
	}
	if upd.StartsAt != nil {
		slot.StartsAt = upd.StartsAt.UTC()
		attrs["starts_at"] = slot.StartsAt
	}
	if upd.EndsAt != nil {
		slot.EndsAt = upd.EndsAt.UTC()
		attrs["ends_at"] = slot.EndsAt
	}
	if _, err := calendar.NewTimeRange(slot.StartsAt, slot.EndsAt); err != nil {
		return nil, apperr.InvalidArg("end must be after start")
	}
	if len(attrs) == 0 {
		return slot, nil
	}

	n, err := s.slotRepo.UpdateAttrs(ctx, slot.ID, slot.OwnerID, attrs)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Между чтением и записью слот успел исчезнуть, сменить
		// владельца или войти в обмен.
		cur, err := s.slotRepo.GetByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("slot not found")
			}
			return nil, err
		}
		if cur.OwnerID.String() != userID {
			return nil, apperr.NotOwner("slot does not belong to user")
		}
		return nil, apperr.SlotLocked("slot is part of a pending swap")
	}
	return slot, nil
}

// ListMine возвращает слоты владельца по возрастанию времени начала.
func (s *SlotService) ListMine(ctx context.Context, ownerID string) ([]model.Slot, error) {
	return s.slotRepo.ListByOwner(ctx, ownerID)
}

// Marketplace возвращает SWAPPABLE-слоты остальных пользователей,
// новые первыми.
func (s *SlotService) Marketplace(ctx context.Context, callerID string) ([]model.Slot, error) {
	return s.slotRepo.ListMarketplace(ctx, callerID)
}
