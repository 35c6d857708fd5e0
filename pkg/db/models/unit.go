package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// Unit is one individually tracked physical asset. SerialKey is the canonical
// identity derived from brand+model+serial, or equal to the shop tag when no
// manufacturer serial exists; it is globally unique.
type Unit struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Ownership        enums.UnitOwnership `gorm:"column:ownership;not null"`
	ProductID        *uuid.UUID          `gorm:"column:product_id;type:uuid"`
	Brand            string              `gorm:"column:brand;not null"`
	Model            string              `gorm:"column:model;not null"`
	ManufacturerSerial *string           `gorm:"column:manufacturer_serial"`
	TagCode          *string             `gorm:"column:tag_code"`
	SerialKey        string              `gorm:"column:serial_key;not null;uniqueIndex"`
	Status           enums.UnitStatus    `gorm:"column:status;not null"`
	LocationID       *uuid.UUID          `gorm:"column:location_id;type:uuid"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *Unit) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UnitRevision records one identity change on a unit. Append-only; the reason
// is mandatory.
type UnitRevision struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UnitID    uuid.UUID `gorm:"column:unit_id;type:uuid;not null;index"`
	Field     string    `gorm:"column:field;not null"`
	OldValue  string    `gorm:"column:old_value"`
	NewValue  string    `gorm:"column:new_value"`
	Reason    string    `gorm:"column:reason;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *UnitRevision) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
