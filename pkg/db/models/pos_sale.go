package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// PosSale is a point-of-sale ticket. Born ISSUED: stock decremented and
// payment posted in the same transaction that creates the document.
type PosSale struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo         int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status        enums.DocumentStatus `gorm:"column:status;not null"`
	CustomerID    *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	LocationID    uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	PaymentMethod enums.PaymentMethod  `gorm:"column:payment_method;not null"`
	AccountID     uuid.UUID            `gorm:"column:account_id;type:uuid;not null"`
	SubtotalCents int64                `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents int64                `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int64                `gorm:"column:total_cents;not null;default:0"`
	Items         []PosSaleItem        `gorm:"foreignKey:SaleID"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *PosSale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type PosSaleItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int64     `gorm:"column:qty;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (i *PosSaleItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
