package issuance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
)

// UpdateUnitIdentity corrects a unit's identity fields inside one
// transaction. Every change lands in the unit's revision trail.
func (e *Engine) UpdateUnitIdentity(ctx context.Context, unitID uuid.UUID, req identity.UpdateRequest) (*models.Unit, error) {
	var updated *models.Unit
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		unit, err := e.identity.UpdateIdentity(ctx, tx, unitID, req)
		if err != nil {
			return err
		}
		updated = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
