package issuance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// UnitizeStockRequest converts existing untracked quantity of an
// asset-tracked product into individual unit rows, one identity row per
// physical unit. Totals never change.
type UnitizeStockRequest struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Ownership  enums.UnitOwnership
	Rows       []UnitIntakeRow
}

// UnitizeStock backfills unit rows for stock that predates asset tracking.
// The batch validates all-or-nothing like a purchase intake and records one
// zero-quantity movement as its audit anchor.
func (e *Engine) UnitizeStock(ctx context.Context, req UnitizeStockRequest) ([]*models.Unit, error) {
	if len(req.Rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unitization requires at least one identity row")
	}
	if !req.Ownership.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown unit ownership %q", req.Ownership)
	}

	var created []*models.Unit
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		location, err := e.catalog.Location(ctx, tx, req.LocationID)
		if err != nil {
			return err
		}
		products, err := e.catalog.ActiveProducts(ctx, tx, []uuid.UUID{req.ProductID})
		if err != nil {
			return err
		}
		product := products[req.ProductID]
		if !product.IsAssetTracked {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "product %q is not asset-tracked", product.Title)
		}

		available, err := e.ledger.LocationQuantity(ctx, tx, req.ProductID, location.ID)
		if err != nil {
			return err
		}
		if int64(len(req.Rows)) > available {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"cannot unitize %d rows; location holds %d of %q", len(req.Rows), available, product.Title)
		}

		intake := make([]identity.IntakeRow, 0, len(req.Rows))
		for _, row := range req.Rows {
			intake = append(intake, identity.IntakeRow{
				ProductID:          req.ProductID,
				Brand:              row.Brand,
				Model:              row.Model,
				ManufacturerSerial: row.ManufacturerSerial,
				TagCode:            row.TagCode,
			})
		}
		units, err := e.identity.PrepareIntake(ctx, tx, req.Ownership, location.ID,
			[]identity.TrackedLine{{Product: product, Quantity: int64(len(req.Rows))}}, intake)
		if err != nil {
			return err
		}
		if err := e.units.CreateBatch(ctx, tx, units); err != nil {
			return err
		}

		// Zero-quantity anchor so the batch shows up in the product's
		// movement history.
		note := fmt.Sprintf("unitized %d units", len(units))
		batchID := uuid.New()
		if err := e.movements.Record(ctx, tx, models.InventoryMovement{
			ProductID:      req.ProductID,
			Kind:           enums.MovementKindAdjust,
			Qty:            0,
			StockBefore:    product.StockQty,
			StockAfter:     product.StockQty,
			FromLocationID: &location.ID,
			ReferenceType:  enums.ReferenceTypeUnitization,
			ReferenceID:    batchID,
			Note:           &note,
		}); err != nil {
			return err
		}

		created = units
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
