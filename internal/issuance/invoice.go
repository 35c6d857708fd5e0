package issuance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// PaymentInput settles (part of) a document total at issuance time.
type PaymentInput struct {
	Method      enums.PaymentMethod
	AmountCents int64
}

// IssueSalesInvoiceRequest bills a customer. Either OrderID or Lines must be
// set: an order-linked invoice copies the order's snapshots and applies no
// stock effects (the order issuance already moved the stock), a standalone
// invoice decrements stock itself.
type IssueSalesInvoiceRequest struct {
	OrderID       *uuid.UUID
	CustomerID    *uuid.UUID
	LocationID    *uuid.UUID
	Lines         []LineInput
	DiscountCents int64
	Payment       *PaymentInput
	Note          string
}

// IssueSalesInvoice creates an ISSUED sales invoice and posts any payment
// received with it.
func (e *Engine) IssueSalesInvoice(ctx context.Context, req IssueSalesInvoiceRequest) (*models.SalesInvoice, error) {
	if req.OrderID == nil && len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice requires an order or line items")
	}
	if req.OrderID != nil && len(req.Lines) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice takes an order or line items, not both")
	}
	if req.DiscountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	var invoice *models.SalesInvoice
	err := e.run(ctx, enums.DocumentFamilySalesInvoice, func(tx *gorm.DB) error {
		doc := models.SalesInvoice{
			Status:        enums.DocumentStatusIssued,
			DiscountCents: req.DiscountCents,
			Note:          notePtr(req.Note),
		}

		if req.OrderID != nil {
			order, err := e.lockOrder(ctx, tx, *req.OrderID)
			if err != nil {
				return err
			}
			if order.Status != enums.DocumentStatusIssued {
				return pkgerrors.Newf(pkgerrors.CodeStateConflict,
					"order %d is %s; only issued orders can be invoiced", order.DocNo, order.Status)
			}
			var existing int64
			if err := tx.WithContext(ctx).Model(&models.SalesInvoice{}).
				Where("order_id = ? AND status <> ?", order.ID, enums.DocumentStatusCancelled).
				Count(&existing).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order invoices")
			}
			if existing > 0 {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "order %d is already invoiced", order.DocNo)
			}
			doc.OrderID = &order.ID
			doc.CustomerID = order.CustomerID
			doc.LocationID = order.LocationID
			for _, item := range order.Items {
				doc.Items = append(doc.Items, models.SalesInvoiceItem{
					ProductID:      item.ProductID,
					Title:          item.Title,
					UnitPriceCents: item.UnitPriceCents,
					Qty:            item.Qty,
					LineTotalCents: item.LineTotalCents,
				})
				doc.SubtotalCents += item.LineTotalCents
			}
		} else {
			if err := validateLines(req.Lines); err != nil {
				return err
			}
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
			doc.CustomerID = req.CustomerID
			doc.LocationID = locationID
			for _, line := range req.Lines {
				product := products[line.ProductID]
				lineTotal := product.PriceCents * line.Qty
				doc.Items = append(doc.Items, models.SalesInvoiceItem{
					ProductID:      line.ProductID,
					Title:          product.Title,
					UnitPriceCents: product.PriceCents,
					Qty:            line.Qty,
					LineTotalCents: lineTotal,
				})
				doc.SubtotalCents += lineTotal
			}
		}

		if req.DiscountCents > doc.SubtotalCents {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"discount %d exceeds subtotal %d", req.DiscountCents, doc.SubtotalCents)
		}
		doc.TotalCents = doc.SubtotalCents - req.DiscountCents

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilySalesInvoice)
		if err != nil {
			return err
		}
		doc.DocNo = docNo
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales invoice")
		}

		if req.OrderID == nil {
			for _, item := range doc.Items {
				snap, err := e.ledger.ApplyDelta(ctx, tx, item.ProductID, doc.LocationID, -item.Qty)
				if err != nil {
					return err
				}
				if err := e.movements.Record(ctx, tx, models.InventoryMovement{
					ProductID:      item.ProductID,
					Kind:           enums.MovementKindOut,
					Qty:            item.Qty,
					StockBefore:    snap.StockBefore,
					StockAfter:     snap.StockAfter,
					FromLocationID: &doc.LocationID,
					ReferenceType:  enums.ReferenceTypeSalesInvoice,
					ReferenceID:    doc.ID,
				}); err != nil {
					return err
				}
			}
		}

		if req.Payment != nil {
			if err := e.applyInvoicePayment(ctx, tx, &doc, *req.Payment); err != nil {
				return err
			}
		}
		invoice = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilySalesInvoice, invoice.DocNo)
	return invoice, nil
}

// RecordInvoicePayment posts a payment against an issued invoice and bumps
// its paid amount. Overpaying the remaining balance is refused.
func (e *Engine) RecordInvoicePayment(ctx context.Context, invoiceID uuid.UUID, payment PaymentInput) (*models.SalesInvoice, error) {
	var invoice *models.SalesInvoice
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var doc models.SalesInvoice
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", invoiceID).
			First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "sales invoice %s not found", invoiceID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sales invoice")
		}
		if doc.Status != enums.DocumentStatusIssued {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"invoice %d is %s; only issued invoices accept payments", doc.DocNo, doc.Status)
		}
		if err := e.applyInvoicePayment(ctx, tx, &doc, payment); err != nil {
			return err
		}
		invoice = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = e.logg.WithDocument(ctx, enums.DocumentFamilySalesInvoice.String(), invoice.DocNo)
	e.logg.Info(ctx, "invoice payment recorded")
	return invoice, nil
}

func (e *Engine) applyInvoicePayment(ctx context.Context, tx *gorm.DB, doc *models.SalesInvoice, payment PaymentInput) error {
	if payment.AmountCents <= 0 {
		return pkgerrors.Newf(pkgerrors.CodeInvalidAmount, "payment amount %d must be positive", payment.AmountCents)
	}
	if doc.PaidCents+payment.AmountCents > doc.TotalCents {
		return pkgerrors.Newf(pkgerrors.CodeInvalidAmount,
			"payment %d exceeds remaining balance %d", payment.AmountCents, doc.TotalCents-doc.PaidCents)
	}
	account, err := e.finance.ResolveAccount(ctx, tx, payment.Method)
	if err != nil {
		return err
	}
	ref := &finance.Reference{Type: enums.ReferenceTypeSalesInvoice, ID: doc.ID}
	if _, err := e.finance.Post(ctx, tx, account.ID, enums.EntryDirectionIn, payment.AmountCents, e.clock.Now(), ref, nil); err != nil {
		return err
	}
	doc.PaidCents += payment.AmountCents
	if err := tx.WithContext(ctx).Model(&models.SalesInvoice{}).
		Where("id = ?", doc.ID).
		Update("paid_cents", doc.PaidCents).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice paid amount")
	}
	return nil
}
