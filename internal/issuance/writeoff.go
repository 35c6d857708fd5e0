package issuance

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// CreateWriteOffRequest removes damaged or lost stock. The reason is
// mandatory.
type CreateWriteOffRequest struct {
	LocationID uuid.UUID
	Reason     string
	Lines      []LineInput
}

// CreateWriteOff issues a write-off: stock out at the location, one OUT
// movement per line carrying the reason.
func (e *Engine) CreateWriteOff(ctx context.Context, req CreateWriteOffRequest) (*models.WriteOff, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "write-off requires a reason")
	}

	var writeOff *models.WriteOff
	err := e.run(ctx, enums.DocumentFamilyWriteOff, func(tx *gorm.DB) error {
		location, err := e.catalog.Location(ctx, tx, req.LocationID)
		if err != nil {
			return err
		}
		products, err := e.catalog.ActiveProducts(ctx, tx, productIDs(req.Lines))
		if err != nil {
			return err
		}
		if err := e.preflightAvailability(ctx, tx, location.ID, req.Lines, products); err != nil {
			return err
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyWriteOff)
		if err != nil {
			return err
		}
		doc := models.WriteOff{
			DocNo:      docNo,
			Status:     enums.DocumentStatusIssued,
			LocationID: location.ID,
			Reason:     req.Reason,
		}
		for _, line := range req.Lines {
			doc.Items = append(doc.Items, models.WriteOffItem{
				ProductID: line.ProductID,
				Title:     products[line.ProductID].Title,
				Qty:       line.Qty,
			})
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create write-off")
		}

		for _, line := range req.Lines {
			snap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, location.ID, -line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:      line.ProductID,
				Kind:           enums.MovementKindOut,
				Qty:            line.Qty,
				StockBefore:    snap.StockBefore,
				StockAfter:     snap.StockAfter,
				FromLocationID: &doc.LocationID,
				ReferenceType:  enums.ReferenceTypeWriteOff,
				ReferenceID:    doc.ID,
				Note:           &doc.Reason,
			}); err != nil {
				return err
			}
		}

		writeOff = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyWriteOff, writeOff.DocNo)
	return writeOff, nil
}
