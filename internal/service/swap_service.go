package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/notify"
	"github.com/Leganyst/slotswap-platform/internal/repository"
)

// SwapService — ядро переговоров об обмене: машина состояний слота и заявки
// плюс атомарный обмен владельцами.
//
// Оба мутирующих перехода (ProposeSwap, Respond) выполняются в одной
// транзакции; смена статусов — условными UPDATE с проверкой RowsAffected,
// поэтому из двух конкурирующих вызовов побеждает ровно один, а проигравший
// получает INVALID_SLOT_STATE / REQUEST_NOT_PENDING.
type SwapService struct {
	db       *gorm.DB
	reqRepo  repository.SwapRequestRepository
	notifier notify.Notifier
}

func NewSwapService(
	db *gorm.DB,
	reqRepo repository.SwapRequestRepository,
	notifier notify.Notifier,
) *SwapService {
	return &SwapService{
		db:       db,
		reqRepo:  reqRepo,
		notifier: notifier,
	}
}

// ProposeSwap создаёт заявку на обмен offeredSlotID ↔ targetSlotID.
// Оба слота должны быть SWAPPABLE и принадлежать разным пользователям;
// вместе с созданием заявки оба атомарно переводятся в SWAP_PENDING.
func (s *SwapService) ProposeSwap(ctx context.Context, requesterID, offeredSlotID, targetSlotID string) (*model.SwapRequest, error) {
	if offeredSlotID == targetSlotID {
		return nil, apperr.SelfSwap("cannot swap a slot with itself")
	}

	var (
		req     *model.SwapRequest
		offered model.Slot
		target  model.Slot
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&offered, "id = ?", offeredSlotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("offered slot not found")
			}
			return err
		}
		if err := tx.First(&target, "id = ?", targetSlotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("target slot not found")
			}
			return err
		}

		if offered.OwnerID.String() != requesterID {
			return apperr.NotOwner("offered slot does not belong to requester")
		}
		if target.OwnerID == offered.OwnerID {
			return apperr.SelfSwap("cannot swap slots of the same user")
		}
		if offered.Status != model.SlotStatusSwappable {
			return apperr.InvalidSlotState("offered slot is not swappable")
		}
		if target.Status != model.SlotStatusSwappable {
			return apperr.InvalidSlotState("target slot is not swappable")
		}

		// Парный атомарный перевод в SWAP_PENDING: ровно 2 затронутые строки,
		// иначе кто-то успел раньше.
		res := tx.Model(&model.Slot{}).
			Where("id IN ? AND status = ?", []uuid.UUID{offered.ID, target.ID}, model.SlotStatusSwappable).
			Update("status", model.SlotStatusSwapPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 2 {
			return apperr.InvalidSlotState("slot is no longer swappable")
		}

		req = &model.SwapRequest{
			ID:              uuid.New(),
			RequesterID:     offered.OwnerID,
			RequesterSlotID: offered.ID,
			TargetID:        target.OwnerID,
			TargetSlotID:    target.ID,
			Status:          model.SwapRequestStatusPending,
		}
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		return s.appendAudit(tx, model.EventTypeSwapRequestCreated, req, &offered, &target)
	})
	if err != nil {
		return nil, err
	}

	// Уведомление — после коммита, best-effort.
	s.notifier.Publish(req.TargetID.String(), notify.EventSwapRequestCreated, notify.SwapEvent{
		RequestID:          req.ID.String(),
		RequesterID:        req.RequesterID.String(),
		TargetID:           req.TargetID.String(),
		RequesterSlotTitle: offered.Title,
		TargetSlotTitle:    target.Title,
	})

	return req, nil
}

// Respond резолвит PENDING-заявку. Отвечать может только адресат.
// accept=true: владельцы слотов меняются местами, оба слота становятся BUSY.
// accept=false: оба слота возвращаются в SWAPPABLE у прежних владельцев.
func (s *SwapService) Respond(ctx context.Context, requestID, responderID string, accept bool) (*model.SwapRequest, error) {
	var (
		req     model.SwapRequest
		offered model.Slot
		target  model.Slot
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("swap request not found")
			}
			return err
		}

		if req.TargetID.String() != responderID {
			return apperr.Forbidden("only the target user may respond to this request")
		}

		newStatus := model.SwapRequestStatusRejected
		eventType := model.EventTypeSwapRequestRejected
		if accept {
			newStatus = model.SwapRequestStatusAccepted
			eventType = model.EventTypeSwapRequestAccepted
		}

		// Побеждает ровно один конкурирующий Respond.
		now := time.Now().UTC()
		res := tx.Model(&model.SwapRequest{}).
			Where("id = ? AND status = ?", req.ID, model.SwapRequestStatusPending).
			Updates(map[string]any{"status": newStatus, "resolved_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.RequestNotPending("request already resolved")
		}
		req.Status = newStatus
		req.ResolvedAt = &now

		if err := tx.First(&offered, "id = ?", req.RequesterSlotID).Error; err != nil {
			return err
		}
		if err := tx.First(&target, "id = ?", req.TargetSlotID).Error; err != nil {
			return err
		}

		if accept {
			// Обмен владельцами: оба слота уходят новым владельцам как BUSY.
			if err := tx.Model(&model.Slot{}).Where("id = ?", req.RequesterSlotID).
				Updates(map[string]any{"owner_id": req.TargetID, "status": model.SlotStatusBusy}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Slot{}).Where("id = ?", req.TargetSlotID).
				Updates(map[string]any{"owner_id": req.RequesterID, "status": model.SlotStatusBusy}).Error; err != nil {
				return err
			}
		} else {
			// Отказ: владельцы не меняются, оба слота снова SWAPPABLE.
			if err := tx.Model(&model.Slot{}).
				Where("id IN ?", []uuid.UUID{req.RequesterSlotID, req.TargetSlotID}).
				Update("status", model.SlotStatusSwappable).Error; err != nil {
				return err
			}
		}

		return s.appendAudit(tx, eventType, &req, &offered, &target)
	})
	if err != nil {
		return nil, err
	}

	eventName := notify.EventSwapRequestRejected
	if accept {
		eventName = notify.EventSwapRequestAccepted
	}
	s.notifier.Publish(req.RequesterID.String(), eventName, notify.SwapEvent{
		RequestID:          req.ID.String(),
		RequesterID:        req.RequesterID.String(),
		TargetID:           req.TargetID.String(),
		RequesterSlotTitle: offered.Title,
		TargetSlotTitle:    target.Title,
	})

	return &req, nil
}

// SetSlotStatus — прямое переключение BUSY ↔ SWAPPABLE владельцем.
// Слот в SWAP_PENDING заблокирован до резолюции заявки.
func (s *SwapService) SetSlotStatus(ctx context.Context, slotID, userID string, newStatus model.SlotStatus) (*model.Slot, error) {
	if newStatus != model.SlotStatusBusy && newStatus != model.SlotStatusSwappable {
		return nil, apperr.InvalidArg("status must be BUSY or SWAPPABLE")
	}

	var slot model.Slot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&slot, "id = ?", slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("slot not found")
			}
			return err
		}
		if slot.OwnerID.String() != userID {
			return apperr.NotOwner("slot does not belong to user")
		}

		res := tx.Model(&model.Slot{}).
			Where("id = ? AND status <> ?", slot.ID, model.SlotStatusSwapPending).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return slotGoneOrLocked(tx, slot.ID)
		}
		slot.Status = newStatus

		payload, _ := json.Marshal(map[string]any{
			"slot_id": slot.ID.String(),
			"status":  newStatus,
		})
		return tx.Create(&model.Event{
			ID:        uuid.New(),
			EventType: model.EventTypeSlotStatusChanged,
			UserID:    &slot.OwnerID,
			Payload:   datatypes.JSON(payload),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteSlot удаляет слот владельца, если тот не участвует в активном обмене.
func (s *SwapService) DeleteSlot(ctx context.Context, slotID, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot model.Slot
		if err := tx.First(&slot, "id = ?", slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("slot not found")
			}
			return err
		}
		if slot.OwnerID.String() != userID {
			return apperr.NotOwner("slot does not belong to user")
		}

		res := tx.Where("id = ? AND status <> ?", slot.ID, model.SlotStatusSwapPending).
			Delete(&model.Slot{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return slotGoneOrLocked(tx, slot.ID)
		}

		payload, _ := json.Marshal(map[string]any{
			"slot_id": slot.ID.String(),
			"title":   slot.Title,
		})
		return tx.Create(&model.Event{
			ID:        uuid.New(),
			EventType: model.EventTypeSlotDeleted,
			UserID:    &slot.OwnerID,
			Payload:   datatypes.JSON(payload),
		}).Error
	})
}

// slotGoneOrLocked различает исход условного UPDATE/DELETE с нулём
// затронутых строк: слот либо удалён конкурентно, либо в SWAP_PENDING.
func slotGoneOrLocked(tx *gorm.DB, slotID uuid.UUID) error {
	var n int64
	if err := tx.Model(&model.Slot{}).Where("id = ?", slotID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("slot not found")
	}
	return apperr.SlotLocked("slot is part of a pending swap")
}

// ListRequests возвращает заявки пользователя (входящие и исходящие).
func (s *SwapService) ListRequests(ctx context.Context, userID string) ([]model.SwapRequest, error) {
	return s.reqRepo.ListByUser(ctx, userID)
}

// GetRequest возвращает заявку, если пользователь — одна из её сторон.
func (s *SwapService) GetRequest(ctx context.Context, requestID, userID string) (*model.SwapRequest, error) {
	req, err := s.reqRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("swap request not found")
		}
		return nil, err
	}
	if req.RequesterID.String() != userID && req.TargetID.String() != userID {
		return nil, apperr.Forbidden("request does not involve user")
	}
	return req, nil
}

func (s *SwapService) appendAudit(tx *gorm.DB, eventType model.EventType, req *model.SwapRequest, offered, target *model.Slot) error {
	payload, err := json.Marshal(map[string]any{
		"request_id":        req.ID.String(),
		"requester_id":      req.RequesterID.String(),
		"target_id":         req.TargetID.String(),
		"requester_slot_id": req.RequesterSlotID.String(),
		"target_slot_id":    req.TargetSlotID.String(),
		"requester_slot":    offered.Title,
		"target_slot":       target.Title,
	})
	if err != nil {
		log.Printf("audit: marshal %s payload: %v", eventType, err)
		payload = []byte(`{}`)
	}

	reqID := req.ID
	return tx.Create(&model.Event{
		ID:            uuid.New(),
		EventType:     eventType,
		UserID:        &req.RequesterID,
		SwapRequestID: &reqID,
		Payload:       datatypes.JSON(payload),
	}).Error
}
