package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип события аудита.
type EventType string

const (
	EventTypeSwapRequestCreated  EventType = "swap_request_created"
	EventTypeSwapRequestAccepted EventType = "swap_request_accepted"
	EventTypeSwapRequestRejected EventType = "swap_request_rejected"
	EventTypeSlotStatusChanged   EventType = "slot_status_changed"
	EventTypeSlotDeleted         EventType = "slot_deleted"
)

// events — события аудита жизненного цикла обменов.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	UserID        *uuid.UUID `gorm:"type:uuid;index"`
	SwapRequestID *uuid.UUID `gorm:"type:uuid;index"`

	// Произвольные детали события (идентификаторы слотов, статусы и т.п.).
	Payload datatypes.JSON `gorm:"type:jsonb"`

	// Навигационные поля
	User        *User        `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	SwapRequest *SwapRequest `gorm:"foreignKey:SwapRequestID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
