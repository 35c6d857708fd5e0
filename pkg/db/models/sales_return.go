package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// SalesReturn takes goods back against an issued sales invoice. Quantities
// are validated against the invoice's remaining returnable quantity.
type SalesReturn struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo           int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status          enums.DocumentStatus `gorm:"column:status;not null"`
	SourceInvoiceID uuid.UUID            `gorm:"column:source_invoice_id;type:uuid;not null;index"`
	LocationID      uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	TotalCents      int64                `gorm:"column:total_cents;not null;default:0"`
	RefundCents     int64                `gorm:"column:refund_cents;not null;default:0"`
	Note            *string              `gorm:"column:note"`
	Items           []SalesReturnItem    `gorm:"foreignKey:ReturnID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *SalesReturn) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type SalesReturnItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID       uuid.UUID `gorm:"column:return_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int64     `gorm:"column:qty;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (i *SalesReturnItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
