package issuance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// CreatePurchaseReturnRequest sends goods back to the supplier of an issued
// purchase bill.
type CreatePurchaseReturnRequest struct {
	SourceBillID uuid.UUID
	Lines        []LineInput
	Note         string
}

// CreatePurchaseReturn issues a purchase return. Lines validate against the
// bill's remaining returnable quantity; stock goes out at the bill's
// receiving location and may fail with InsufficientStock if it was already
// moved or sold.
func (e *Engine) CreatePurchaseReturn(ctx context.Context, req CreatePurchaseReturnRequest) (*models.PurchaseReturn, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	var ret *models.PurchaseReturn
	err := e.run(ctx, enums.DocumentFamilyPurchaseReturn, func(tx *gorm.DB) error {
		bill, err := e.lockBillWithItems(ctx, tx, req.SourceBillID)
		if err != nil {
			return err
		}
		if bill.Status != enums.DocumentStatusIssued {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"purchase bill %d is %s; only issued bills accept returns", bill.DocNo, bill.Status)
		}

		billed := make(map[uuid.UUID]models.PurchaseBillItem, len(bill.Items))
		for _, item := range bill.Items {
			billed[item.ProductID] = item
		}
		returned, err := e.purchaseReturnedQuantities(ctx, tx, bill.ID)
		if err != nil {
			return err
		}
		for _, line := range req.Lines {
			item, ok := billed[line.ProductID]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"product %s is not on purchase bill %d", line.ProductID, bill.DocNo)
			}
			remaining := item.Qty - returned[line.ProductID]
			if line.Qty > remaining {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"product %q has %d returnable of %d billed, %d requested",
					item.Title, remaining, item.Qty, line.Qty)
			}
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyPurchaseReturn)
		if err != nil {
			return err
		}
		doc := models.PurchaseReturn{
			DocNo:        docNo,
			Status:       enums.DocumentStatusIssued,
			SourceBillID: bill.ID,
			LocationID:   bill.LocationID,
			Note:         notePtr(req.Note),
		}
		for _, line := range req.Lines {
			item := billed[line.ProductID]
			lineTotal := item.UnitCostCents * line.Qty
			doc.Items = append(doc.Items, models.PurchaseReturnItem{
				ProductID:      line.ProductID,
				Title:          item.Title,
				UnitCostCents:  item.UnitCostCents,
				Qty:            line.Qty,
				LineTotalCents: lineTotal,
			})
			doc.TotalCents += lineTotal
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase return")
		}

		for _, line := range req.Lines {
			snap, err := e.ledger.ApplyDelta(ctx, tx, line.ProductID, doc.LocationID, -line.Qty)
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
				ReferenceType:  enums.ReferenceTypePurchaseReturn,
				ReferenceID:    doc.ID,
			}); err != nil {
				return err
			}
		}

		ret = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyPurchaseReturn, ret.DocNo)
	return ret, nil
}

func (e *Engine) lockBillWithItems(ctx context.Context, tx *gorm.DB, billID uuid.UUID) (*models.PurchaseBill, error) {
	var bill models.PurchaseBill
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", billID).
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase bill %s not found", billID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase bill")
	}
	if err := tx.WithContext(ctx).Where("bill_id = ?", bill.ID).Find(&bill.Items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill items")
	}
	return &bill, nil
}

func (e *Engine) purchaseReturnedQuantities(ctx context.Context, tx *gorm.DB, billID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		ProductID uuid.UUID
		Total     int64
	}
	var rows []row
	err := tx.WithContext(ctx).
		Model(&models.PurchaseReturnItem{}).
		Select("purchase_return_items.product_id AS product_id, SUM(purchase_return_items.qty) AS total").
		Joins("JOIN purchase_returns ON purchase_returns.id = purchase_return_items.return_id").
		Where("purchase_returns.source_bill_id = ? AND purchase_returns.status = ?", billID, enums.DocumentStatusIssued).
		Group("purchase_return_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum prior purchase returns")
	}
	totals := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		totals[r.ProductID] = r.Total
	}
	return totals, nil
}
