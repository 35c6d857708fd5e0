package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// InventoryMovement is one immutable stock-change audit row carrying the
// exact before/after totals the stock ledger reported.
type InventoryMovement struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Kind           enums.MovementKind  `gorm:"column:kind;not null"`
	Qty            int64               `gorm:"column:qty;not null"`
	StockBefore    int64               `gorm:"column:stock_before;not null"`
	StockAfter     int64               `gorm:"column:stock_after;not null"`
	FromLocationID *uuid.UUID          `gorm:"column:from_location_id;type:uuid"`
	ToLocationID   *uuid.UUID          `gorm:"column:to_location_id;type:uuid"`
	ReferenceType  enums.ReferenceType `gorm:"column:reference_type;not null"`
	ReferenceID    uuid.UUID           `gorm:"column:reference_id;type:uuid;not null;index"`
	Note           *string             `gorm:"column:note"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (m *InventoryMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
