package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a warehouse or the shop floor.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *Location) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LocationStock holds one (location, product) quantity. Rows are created
// lazily on first movement and never deleted.
type LocationStock struct {
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Qty        int64     `gorm:"column:qty;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
