package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// Party is a supplier or customer referenced by documents.
type Party struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Type      enums.PartyType `gorm:"column:type;not null"`
	Name      string          `gorm:"column:name;not null"`
	Phone     *string         `gorm:"column:phone"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (p *Party) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
