package issuance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// CreatePosSaleRequest is a walk-in counter sale, paid on the spot. When no
// location is given the configured shop location is used.
type CreatePosSaleRequest struct {
	CustomerID    *uuid.UUID
	LocationID    *uuid.UUID
	PaymentMethod enums.PaymentMethod
	DiscountCents int64
	Lines         []LineInput
}

// CreatePosSale issues a POS ticket: every line's availability is validated
// before any decrement, then stock goes out, and the payment lands on the
// account backing the chosen method.
func (e *Engine) CreatePosSale(ctx context.Context, req CreatePosSaleRequest) (*models.PosSale, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if req.DiscountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	var sale *models.PosSale
	err := e.run(ctx, enums.DocumentFamilyPosSale, func(tx *gorm.DB) error {
		locationID, err := e.resolveLocation(ctx, tx, req.LocationID)
		if err != nil {
			return err
		}
		if _, err := e.parties.RequireOptional(ctx, tx, req.CustomerID, enums.PartyTypeCustomer); err != nil {
			return err
		}
		products, err := e.catalog.ActiveProducts(ctx, tx, productIDs(req.Lines))
		if err != nil {
			return err
		}
		if err := ensureSellable(products, req.Lines); err != nil {
			return err
		}
		if err := e.preflightAvailability(ctx, tx, locationID, req.Lines, products); err != nil {
			return err
		}
		account, err := e.finance.ResolveAccount(ctx, tx, req.PaymentMethod)
		if err != nil {
			return err
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyPosSale)
		if err != nil {
			return err
		}
		doc := models.PosSale{
			DocNo:         docNo,
			Status:        enums.DocumentStatusIssued,
			CustomerID:    req.CustomerID,
			LocationID:    locationID,
			PaymentMethod: req.PaymentMethod,
			AccountID:     account.ID,
			DiscountCents: req.DiscountCents,
		}
		for _, line := range req.Lines {
			product := products[line.ProductID]
			lineTotal := product.PriceCents * line.Qty
			doc.Items = append(doc.Items, models.PosSaleItem{
				ProductID:      line.ProductID,
				Title:          product.Title,
				UnitPriceCents: product.PriceCents,
				Qty:            line.Qty,
				LineTotalCents: lineTotal,
			})
			doc.SubtotalCents += lineTotal
		}
		if req.DiscountCents > doc.SubtotalCents {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"discount %d exceeds subtotal %d", req.DiscountCents, doc.SubtotalCents)
		}
		doc.TotalCents = doc.SubtotalCents - req.DiscountCents
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pos sale")
		}

		for _, line := range req.Lines {
			snap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, locationID, -line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:      line.ProductID,
				Kind:           enums.MovementKindOut,
				Qty:            line.Qty,
				StockBefore:    snap.StockBefore,
				StockAfter:     snap.StockAfter,
				FromLocationID: &locationID,
				ReferenceType:  enums.ReferenceTypePosSale,
				ReferenceID:    doc.ID,
			}); err != nil {
				return err
			}
		}

		if doc.TotalCents > 0 {
			ref := &finance.Reference{Type: enums.ReferenceTypePosSale, ID: doc.ID}
			if _, err := e.finance.Post(ctx, tx, account.ID, enums.EntryDirectionIn, doc.TotalCents, e.clock.Now(), ref, nil); err != nil {
				return err
			}
		}

		sale = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyPosSale, sale.DocNo)
	return sale, nil
}

// resolveLocation picks the explicit location or falls back to the
// configured shop floor.
func (e *Engine) resolveLocation(ctx context.Context, tx *gorm.DB, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil {
		location, err := e.catalog.Location(ctx, tx, *id)
		if err != nil {
			return uuid.Nil, err
		}
		return location.ID, nil
	}
	location, err := e.catalog.LocationByCode(ctx, tx, e.shopLocation)
	if err != nil {
		return uuid.Nil, err
	}
	return location.ID, nil
}
