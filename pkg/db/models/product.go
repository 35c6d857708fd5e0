package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// Product is a sellable/rentable catalog item. StockQty is the denormalized
// global total and always equals the sum of the product's location stocks;
// only the stock ledger writes it.
type Product struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Title          string            `gorm:"column:title;not null"`
	Type           enums.ProductType `gorm:"column:type;not null"`
	PriceCents     int64             `gorm:"column:price_cents;not null"`
	StockQty       int64             `gorm:"column:stock_qty;not null;default:0"`
	IsAssetTracked bool              `gorm:"column:is_asset_tracked;not null;default:false"`
	SerialRequired bool              `gorm:"column:serial_required;not null;default:false"`
	Brand          *string           `gorm:"column:brand"`
	Model          *string           `gorm:"column:model"`
	IsActive       bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
