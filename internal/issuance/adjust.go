package issuance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/stock"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// AdjustInventoryRequest corrects one product's quantity at one location,
// either by a signed delta or to an absolute target.
type AdjustInventoryRequest struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Mode       enums.AdjustMode
	Value      int64
	Reason     string
}

// AdjustInventory applies a stock correction and records it as an ADJUST
// movement. A SET that matches the current quantity persists the adjustment
// row but writes no movement.
func (e *Engine) AdjustInventory(ctx context.Context, req AdjustInventoryRequest) (*models.InventoryAdjustment, error) {
	if !req.Mode.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown adjust mode %q", req.Mode)
	}
	if req.Mode == enums.AdjustModeDelta && req.Value == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta adjustment must be non-zero")
	}
	if req.Mode == enums.AdjustModeSet && req.Value < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity must not be negative")
	}

	var adjustment *models.InventoryAdjustment
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		location, err := e.catalog.Location(ctx, tx, req.LocationID)
		if err != nil {
			return err
		}
		if _, err := e.catalog.ActiveProducts(ctx, tx, []uuid.UUID{req.ProductID}); err != nil {
			return err
		}

		var snap stock.Snapshot
		var applied int64
		switch req.Mode {
		case enums.AdjustModeDelta:
			snap, err = e.ledger.ApplyDelta(ctx, tx, req.ProductID, location.ID, req.Value)
			if err != nil {
				return err
			}
			applied = req.Value
		case enums.AdjustModeSet:
			snap, applied, err = e.ledger.SetQuantity(ctx, tx, req.ProductID, location.ID, req.Value)
			if err != nil {
				return err
			}
		}

		doc := models.InventoryAdjustment{
			ProductID:    req.ProductID,
			LocationID:   location.ID,
			Mode:         req.Mode,
			Value:        req.Value,
			AppliedDelta: applied,
			Reason:       notePtr(req.Reason),
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory adjustment")
		}

		if applied != 0 {
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:      req.ProductID,
				Kind:           enums.MovementKindAdjust,
				Qty:            applied,
				StockBefore:    snap.StockBefore,
				StockAfter:     snap.StockAfter,
				FromLocationID: &doc.LocationID,
				ReferenceType:  enums.ReferenceTypeAdjustment,
				ReferenceID:    doc.ID,
				Note:           doc.Reason,
			}); err != nil {
				return err
			}
		}

		adjustment = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}
