package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/metrics"
)

// MovementLog appends audit rows for stock mutations. It exposes no update
// or delete surface.
type MovementLog interface {
	Record(ctx context.Context, tx *gorm.DB, movement models.InventoryMovement) error
}

type movementLog struct{}

// NewMovementLog returns the append-only movement log.
func NewMovementLog() MovementLog {
	return movementLog{}
}

func (movementLog) Record(ctx context.Context, tx *gorm.DB, movement models.InventoryMovement) error {
	if movement.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement requires a product")
	}
	if !movement.Kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown movement kind %q", movement.Kind)
	}
	if !movement.ReferenceType.IsValid() || movement.ReferenceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement requires a document reference")
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory movement")
	}
	metrics.StockMovements.WithLabelValues(string(movement.Kind)).Inc()
	return nil
}
