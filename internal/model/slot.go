package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус слота календаря.
type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING"
)

// slots
//
// Слот в статусе SWAP_PENDING ссылается ровно на одну активную (PENDING)
// заявку на обмен; в BUSY/SWAPPABLE — ни на одну. Выход из SWAP_PENDING
// возможен только через резолюцию заявки.
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Status SlotStatus `gorm:"type:varchar(32);not null;default:'BUSY';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Duration — длительность слота.
func (s *Slot) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}
