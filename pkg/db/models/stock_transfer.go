package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// StockTransfer moves quantity between two locations. The global total is
// unchanged; each line decrements the source and increments the destination
// in the same transaction.
type StockTransfer struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo          int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status         enums.DocumentStatus `gorm:"column:status;not null"`
	FromLocationID uuid.UUID            `gorm:"column:from_location_id;type:uuid;not null"`
	ToLocationID   uuid.UUID            `gorm:"column:to_location_id;type:uuid;not null"`
	Note           *string              `gorm:"column:note"`
	Items          []StockTransferItem  `gorm:"foreignKey:TransferID"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *StockTransfer) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type StockTransferItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TransferID uuid.UUID `gorm:"column:transfer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title      string    `gorm:"column:title;not null"`
	Qty        int64     `gorm:"column:qty;not null"`
}

func (i *StockTransferItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
