package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// LedgerAccount is a cash/bank/mobile-money bucket. Balances are always
// derived from entries; no stored balance exists to drift.
type LedgerAccount struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Kind         enums.AccountKind `gorm:"column:kind;not null"`
	OpeningCents int64             `gorm:"column:opening_cents;not null;default:0"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (a *LedgerAccount) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// LedgerEntry is one immutable directional money movement.
type LedgerEntry struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	AccountID     uuid.UUID            `gorm:"column:account_id;type:uuid;not null;index"`
	Direction     enums.EntryDirection `gorm:"column:direction;not null"`
	AmountCents   int64                `gorm:"column:amount_cents;not null"`
	OccurredAt    time.Time            `gorm:"column:occurred_at;not null"`
	ReferenceType *enums.ReferenceType `gorm:"column:reference_type"`
	ReferenceID   *uuid.UUID           `gorm:"column:reference_id;type:uuid"`
	Note          *string              `gorm:"column:note"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
