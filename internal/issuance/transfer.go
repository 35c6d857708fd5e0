package issuance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// CreateStockTransferRequest moves quantity between two locations.
type CreateStockTransferRequest struct {
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Lines          []LineInput
	Note           string
}

// CreateStockTransfer issues a transfer: per line one OUT movement at the
// source and one IN at the destination, in the same transaction, leaving the
// product total untouched.
func (e *Engine) CreateStockTransfer(ctx context.Context, req CreateStockTransferRequest) (*models.StockTransfer, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if req.FromLocationID == req.ToLocationID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer source and destination must differ")
	}

	var transfer *models.StockTransfer
	err := e.run(ctx, enums.DocumentFamilyStockTransfer, func(tx *gorm.DB) error {
		from, err := e.catalog.Location(ctx, tx, req.FromLocationID)
		if err != nil {
			return err
		}
		to, err := e.catalog.Location(ctx, tx, req.ToLocationID)
		if err != nil {
			return err
		}
		products, err := e.catalog.ActiveProducts(ctx, tx, productIDs(req.Lines))
		if err != nil {
			return err
		}
		if err := e.preflightAvailability(ctx, tx, from.ID, req.Lines, products); err != nil {
			return err
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyStockTransfer)
		if err != nil {
			return err
		}
		doc := models.StockTransfer{
			DocNo:          docNo,
			Status:         enums.DocumentStatusIssued,
			FromLocationID: from.ID,
			ToLocationID:   to.ID,
			Note:           notePtr(req.Note),
		}
		for _, line := range req.Lines {
			doc.Items = append(doc.Items, models.StockTransferItem{
				ProductID: line.ProductID,
				Title:     products[line.ProductID].Title,
				Qty:       line.Qty,
			})
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock transfer")
		}

		for _, line := range req.Lines {
			outSnap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, from.ID, -line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:      line.ProductID,
				Kind:           enums.MovementKindOut,
				Qty:            line.Qty,
				StockBefore:    outSnap.StockBefore,
				StockAfter:     outSnap.StockAfter,
				FromLocationID: &doc.FromLocationID,
				ToLocationID:   &doc.ToLocationID,
				ReferenceType:  enums.ReferenceTypeStockTransfer,
				ReferenceID:    doc.ID,
			}); err != nil {
				return err
			}
			inSnap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, to.ID, line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:      line.ProductID,
				Kind:           enums.MovementKindIn,
				Qty:            line.Qty,
				StockBefore:    inSnap.StockBefore,
				StockAfter:     inSnap.StockAfter,
				FromLocationID: &doc.FromLocationID,
				ToLocationID:   &doc.ToLocationID,
				ReferenceType:  enums.ReferenceTypeStockTransfer,
				ReferenceID:    doc.ID,
			}); err != nil {
				return err
			}
		}

		transfer = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyStockTransfer, transfer.DocNo)
	return transfer, nil
}
