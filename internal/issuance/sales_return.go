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

// CreateSalesReturnRequest takes goods back against an issued invoice.
type CreateSalesReturnRequest struct {
	SourceInvoiceID uuid.UUID
	Lines           []LineInput
	Refund          *PaymentInput
	Note            string
}

// CreateSalesReturn issues a sales return. Each line is validated against
// the invoice's remaining returnable quantity, which accounts for every
// prior issued return on the same invoice. Stock comes back to the
// invoice's original location; a refund posts money OUT.
func (e *Engine) CreateSalesReturn(ctx context.Context, req CreateSalesReturnRequest) (*models.SalesReturn, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	var ret *models.SalesReturn
	err := e.run(ctx, enums.DocumentFamilySalesReturn, func(tx *gorm.DB) error {
		invoice, err := e.lockInvoiceWithItems(ctx, tx, req.SourceInvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != enums.DocumentStatusIssued {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"invoice %d is %s; only issued invoices accept returns", invoice.DocNo, invoice.Status)
		}

		invoiced := make(map[uuid.UUID]models.SalesInvoiceItem, len(invoice.Items))
		for _, item := range invoice.Items {
			invoiced[item.ProductID] = item
		}
		returned, err := e.returnedQuantities(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		for _, line := range req.Lines {
			item, ok := invoiced[line.ProductID]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"product %s is not on invoice %d", line.ProductID, invoice.DocNo)
			}
			remaining := item.Qty - returned[line.ProductID]
			if line.Qty > remaining {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"product %q has %d returnable of %d invoiced, %d requested",
					item.Title, remaining, item.Qty, line.Qty)
			}
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilySalesReturn)
		if err != nil {
			return err
		}
		doc := models.SalesReturn{
			DocNo:           docNo,
			Status:          enums.DocumentStatusIssued,
			SourceInvoiceID: invoice.ID,
			LocationID:      invoice.LocationID,
			Note:            notePtr(req.Note),
		}
		for _, line := range req.Lines {
			item := invoiced[line.ProductID]
			lineTotal := item.UnitPriceCents * line.Qty
			doc.Items = append(doc.Items, models.SalesReturnItem{
				ProductID:      line.ProductID,
				Title:          item.Title,
				UnitPriceCents: item.UnitPriceCents,
				Qty:            line.Qty,
				LineTotalCents: lineTotal,
			})
			doc.TotalCents += lineTotal
		}
		if req.Refund != nil {
			if req.Refund.AmountCents <= 0 {
				return pkgerrors.Newf(pkgerrors.CodeInvalidAmount,
					"refund amount %d must be positive", req.Refund.AmountCents)
			}
			if req.Refund.AmountCents > doc.TotalCents {
				return pkgerrors.Newf(pkgerrors.CodeInvalidAmount,
					"refund %d exceeds return total %d", req.Refund.AmountCents, doc.TotalCents)
			}
			doc.RefundCents = req.Refund.AmountCents
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales return")
		}

		for _, line := range req.Lines {
			snap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, doc.LocationID, line.Qty)
			if err != nil {
				return err
			}
			if err := e.movements.Record(ctx, tx, models.InventoryMovement{
				ProductID:     line.ProductID,
				Kind:          enums.MovementKindIn,
				Qty:           line.Qty,
				StockBefore:   snap.StockBefore,
				StockAfter:    snap.StockAfter,
				ToLocationID:  &doc.LocationID,
				ReferenceType: enums.ReferenceTypeSalesReturn,
				ReferenceID:   doc.ID,
			}); err != nil {
				return err
			}
		}

		if req.Refund != nil {
			account, err := e.finance.ResolveAccount(ctx, tx, req.Refund.Method)
			if err != nil {
				return err
			}
			ref := &finance.Reference{Type: enums.ReferenceTypeSalesReturn, ID: doc.ID}
			if _, err := e.finance.Post(ctx, tx, account.ID, enums.EntryDirectionOut, doc.RefundCents, e.clock.Now(), ref, nil); err != nil {
				return err
			}
		}

		ret = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilySalesReturn, ret.DocNo)
	return ret, nil
}

func (e *Engine) lockInvoiceWithItems(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) (*models.SalesInvoice, error) {
	var invoice models.SalesInvoice
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", invoiceID).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "sales invoice %s not found", invoiceID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sales invoice")
	}
	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Find(&invoice.Items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice items")
	}
	return &invoice, nil
}

// returnedQuantities sums, per product, everything already returned on
// issued returns against the invoice.
func (e *Engine) returnedQuantities(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		ProductID uuid.UUID
		Total     int64
	}
	var rows []row
	err := tx.WithContext(ctx).
		Model(&models.SalesReturnItem{}).
		Select("sales_return_items.product_id AS product_id, SUM(sales_return_items.qty) AS total").
		Joins("JOIN sales_returns ON sales_returns.id = sales_return_items.return_id").
		Where("sales_returns.source_invoice_id = ? AND sales_returns.status = ?", invoiceID, enums.DocumentStatusIssued).
		Group("sales_return_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum prior returns")
	}
	totals := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		totals[r.ProductID] = r.Total
	}
	return totals, nil
}
