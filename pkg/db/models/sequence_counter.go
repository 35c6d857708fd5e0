package models

import (
	"time"

	"github.com/nandarlin/shopbooks-backend/pkg/enums"
)

// SequenceCounter holds the next number for one document family. The row is
// advanced under row lock inside the issuing transaction, so a rollback
// releases the number with the document.
type SequenceCounter struct {
	Family    enums.DocumentFamily `gorm:"column:family;primaryKey"`
	NextNo    int64                `gorm:"column:next_no;not null;default:1"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
