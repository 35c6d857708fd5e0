package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// RentalBill charges a customer for renting tracked units. Issuing moves the
// billed units to RENTED_OUT and posts the rental income.
type RentalBill struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo      int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status     enums.DocumentStatus `gorm:"column:status;not null"`
	CustomerID uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	TotalCents int64                `gorm:"column:total_cents;not null;default:0"`
	Note       *string              `gorm:"column:note"`
	Items      []RentalBillItem     `gorm:"foreignKey:BillID"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *RentalBill) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type RentalBillItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BillID         uuid.UUID  `gorm:"column:bill_id;type:uuid;not null;index"`
	UnitID         uuid.UUID  `gorm:"column:unit_id;type:uuid;not null"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Title          string     `gorm:"column:title;not null"`
	Days           int64      `gorm:"column:days;not null"`
	DailyRateCents int64      `gorm:"column:daily_rate_cents;not null"`
	LineTotalCents int64      `gorm:"column:line_total_cents;not null"`
}

func (i *RentalBillItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
