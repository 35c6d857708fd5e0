package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// WriteOff removes damaged or lost stock from a location.
type WriteOff struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DocNo      int64                `gorm:"column:doc_no;not null;uniqueIndex"`
	Status     enums.DocumentStatus `gorm:"column:status;not null"`
	LocationID uuid.UUID            `gorm:"column:location_id;type:uuid;not null"`
	Reason     string               `gorm:"column:reason;not null"`
	Items      []WriteOffItem       `gorm:"foreignKey:WriteOffID"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *WriteOff) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type WriteOffItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WriteOffID uuid.UUID `gorm:"column:write_off_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title      string    `gorm:"column:title;not null"`
	Qty        int64     `gorm:"column:qty;not null"`
}

func (i *WriteOffItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
