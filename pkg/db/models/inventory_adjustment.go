package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// InventoryAdjustment corrects one product's quantity at one location,
// either by a signed delta or to an absolute target. The applied delta is
// stored so the audit trail stays meaningful for SET adjustments.
type InventoryAdjustment struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	LocationID   uuid.UUID        `gorm:"column:location_id;type:uuid;not null"`
	Mode         enums.AdjustMode `gorm:"column:mode;not null"`
	Value        int64            `gorm:"column:value;not null"`
	AppliedDelta int64            `gorm:"column:applied_delta;not null"`
	Reason       *string          `gorm:"column:reason"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (a *InventoryAdjustment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
