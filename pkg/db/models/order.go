package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// Order is a customer order. Issuing it decrements shop stock; cancelling an
// issued order writes compensating IN movements instead of deleting history.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo          int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status         enums.DocumentStatus `gorm:"column:status;not null"`
	CustomerID     *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	LocationID     uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	SubtotalCents  int64                `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents  int64                `gorm:"column:discount_cents;not null;default:0"`
	DeliveryCents  int64                `gorm:"column:delivery_cents;not null;default:0"`
	TotalCents     int64                `gorm:"column:total_cents;not null;default:0"`
	Note           *string              `gorm:"column:note"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots title and price at creation time so later catalog
// edits never alter the historical document.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int64     `gorm:"column:qty;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
