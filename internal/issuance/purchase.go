package issuance

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// PurchaseLineInput is one received product row with its unit cost.
type PurchaseLineInput struct {
	ProductID     uuid.UUID
	Qty           int64
	UnitCostCents int64
}

// UnitIntakeRow identifies one arriving physical unit of an asset-tracked
// line.
type UnitIntakeRow struct {
	ProductID          uuid.UUID
	Brand              string
	Model              string
	ManufacturerSerial *string
	TagCode            *string
}

// IssuePurchaseBillRequest receives goods from a supplier.
type IssuePurchaseBillRequest struct {
	SupplierID *uuid.UUID
	LocationID uuid.UUID
	Lines      []PurchaseLineInput
	UnitIntake []UnitIntakeRow
	Note       string
}

// IssuePurchaseBill creates an issued purchase bill: stock in at the
// receiving location, one movement per line, and unit rows for every
// asset-tracked line validated as an all-or-nothing intake batch.
func (e *Engine) IssuePurchaseBill(ctx context.Context, req IssuePurchaseBillRequest) (*models.PurchaseBill, error) {
	lines := make([]LineInput, 0, len(req.Lines))
	var costErr error
	for i, line := range req.Lines {
		lines = append(lines, LineInput{ProductID: line.ProductID, Qty: line.Qty})
		if line.UnitCostCents < 0 {
			costErr = multierr.Append(costErr, pkgerrors.Newf(pkgerrors.CodeValidation,
				"line %d unit cost %d must not be negative", i+1, line.UnitCostCents))
		}
	}
	if err := multierr.Append(validateLines(lines), costErr); err != nil {
		return nil, err
	}

	var bill *models.PurchaseBill
	err := e.run(ctx, enums.DocumentFamilyPurchaseBill, func(tx *gorm.DB) error {
		location, err := e.catalog.Location(ctx, tx, req.LocationID)
		if err != nil {
			return err
		}
		if _, err := e.parties.RequireOptional(ctx, tx, req.SupplierID, enums.PartyTypeSupplier); err != nil {
			return err
		}
		products, err := e.catalog.ActiveProducts(ctx, tx, productIDs(lines))
		if err != nil {
			return err
		}

		tracked := make([]identity.TrackedLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			product := products[line.ProductID]
			if product.IsAssetTracked {
				tracked = append(tracked, identity.TrackedLine{Product: product, Quantity: line.Qty})
			}
		}
		intake := make([]identity.IntakeRow, 0, len(req.UnitIntake))
		for _, row := range req.UnitIntake {
			intake = append(intake, identity.IntakeRow{
				ProductID:          row.ProductID,
				Brand:              row.Brand,
				Model:              row.Model,
				ManufacturerSerial: row.ManufacturerSerial,
				TagCode:            row.TagCode,
			})
		}
		units, err := e.identity.PrepareIntake(ctx, tx, enums.UnitOwnershipOwned, location.ID, tracked, intake)
		if err != nil {
			return err
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyPurchaseBill)
		if err != nil {
			return err
		}

		doc := models.PurchaseBill{
			DocNo:      docNo,
			Status:     enums.DocumentStatusIssued,
			SupplierID: req.SupplierID,
			LocationID: location.ID,
			Note:       notePtr(req.Note),
		}
		for _, line := range req.Lines {
			product := products[line.ProductID]
			lineTotal := line.UnitCostCents * line.Qty
			doc.Items = append(doc.Items, models.PurchaseBillItem{
				ProductID:      line.ProductID,
				Title:          product.Title,
				UnitCostCents:  line.UnitCostCents,
				Qty:            line.Qty,
				LineTotalCents: lineTotal,
			})
			doc.SubtotalCents += lineTotal
		}
		doc.TotalCents = doc.SubtotalCents
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase bill")
		}

		for _, line := range req.Lines {
			snap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, location.ID, line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:     line.ProductID,
				Kind:          enums.MovementKindIn,
				Qty:           line.Qty,
				StockBefore:   snap.StockBefore,
				StockAfter:    snap.StockAfter,
				ToLocationID:  &location.ID,
				ReferenceType: enums.ReferenceTypePurchaseBill,
				ReferenceID:   doc.ID,
			}); err != nil {
				return err
			}
		}
		if err := e.units.CreateBatch(ctx, tx, units); err != nil {
			return err
		}

		bill = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyPurchaseBill, bill.DocNo)
	return bill, nil
}
