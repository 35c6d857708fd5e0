package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// SalesInvoice bills a customer. It may originate from an order or stand
// alone; returns validate against its items' remaining returnable quantity.
type SalesInvoice struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo         int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status        enums.DocumentStatus `gorm:"column:status;not null"`
	OrderID       *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	CustomerID    *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	LocationID    uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	SubtotalCents int64                `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents int64                `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int64                `gorm:"column:total_cents;not null;default:0"`
	PaidCents     int64                `gorm:"column:paid_cents;not null;default:0"`
	Note          *string              `gorm:"column:note"`
	Items         []SalesInvoiceItem   `gorm:"foreignKey:InvoiceID"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SalesInvoice) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SalesInvoiceItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID      uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int64     `gorm:"column:qty;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (i *SalesInvoiceItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
