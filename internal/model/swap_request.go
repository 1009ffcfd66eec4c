package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус заявки на обмен.
type SwapRequestStatus string

const (
	SwapRequestStatusPending  SwapRequestStatus = "PENDING"
	SwapRequestStatusAccepted SwapRequestStatus = "ACCEPTED"
	SwapRequestStatusRejected SwapRequestStatus = "REJECTED"
)

// swap_requests — журнал заявок на обмен слотами.
//
// Заявка никогда не удаляется: ACCEPTED/REJECTED — терминальные статусы,
// журнал служит аудиторским следом переговоров.
type SwapRequest struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	RequesterID     uuid.UUID `gorm:"type:uuid;not null;index"`
	RequesterSlotID uuid.UUID `gorm:"type:uuid;not null;index"`
	TargetID        uuid.UUID `gorm:"type:uuid;not null;index"`
	TargetSlotID    uuid.UUID `gorm:"type:uuid;not null;index"`

	Status SwapRequestStatus `gorm:"type:varchar(32);not null;default:'PENDING';index"`

	CreatedAt  time.Time  `gorm:"not null;default:now()"`
	ResolvedAt *time.Time `gorm:"type:timestamp with time zone"`

	// Навигационные поля для Preload в выдаче журнала.
	Requester     *User `gorm:"foreignKey:RequesterID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Target        *User `gorm:"foreignKey:TargetID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	RequesterSlot *Slot `gorm:"foreignKey:RequesterSlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TargetSlot    *Slot `gorm:"foreignKey:TargetSlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
