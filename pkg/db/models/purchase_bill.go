package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// PurchaseBill records goods received from a supplier. Issued immediately;
// asset-tracked lines create unit rows from the validated intake batch.
type PurchaseBill struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo         int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status        enums.DocumentStatus `gorm:"column:status;not null"`
	SupplierID    *uuid.UUID           `gorm:"column:supplier_id;type:uuid"`
	LocationID    uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	SubtotalCents int64                `gorm:"column:subtotal_cents;not null;default:0"`
	TotalCents    int64                `gorm:"column:total_cents;not null;default:0"`
	Note          *string              `gorm:"column:note"`
	Items         []PurchaseBillItem   `gorm:"foreignKey:BillID"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *PurchaseBill) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type PurchaseBillItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BillID         uuid.UUID `gorm:"column:bill_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitCostCents  int64     `gorm:"column:unit_cost_cents;not null"`
	Qty            int64     `gorm:"column:qty;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (i *PurchaseBillItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
