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

// CreateOrderRequest drafts a customer order. Drafting has no stock side
// effects; stock moves when the order is issued.
type CreateOrderRequest struct {
	CustomerID    *uuid.UUID
	LocationID    *uuid.UUID
	Lines         []LineInput
	DiscountCents int64
	DeliveryCents int64
	Note          string
	IssueNow      bool
}

// CreateOrder persists a DRAFT order with title/price snapshots, optionally
// issuing it in the same transaction.
func (e *Engine) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if req.DiscountCents < 0 || req.DeliveryCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount and delivery fee must not be negative")
	}

	var order *models.Order
	err := e.run(ctx, enums.DocumentFamilyOrder, func(tx *gorm.DB) error {
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

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyOrder)
		if err != nil {
			return err
		}
		doc := models.Order{
			DocNo:         docNo,
			Status:        enums.DocumentStatusDraft,
			CustomerID:    req.CustomerID,
			LocationID:    locationID,
			DiscountCents: req.DiscountCents,
			DeliveryCents: req.DeliveryCents,
			Note:          notePtr(req.Note),
		}
		for _, line := range req.Lines {
			product := products[line.ProductID]
			lineTotal := product.PriceCents * line.Qty
			doc.Items = append(doc.Items, models.OrderItem{
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
		doc.TotalCents = doc.SubtotalCents - req.DiscountCents + req.DeliveryCents
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if req.IssueNow {
			if err := e.issueOrderLocked(ctx, tx, &doc); err != nil {
				return err
			}
		}
		order = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = e.logg.WithDocument(ctx, enums.DocumentFamilyOrder.String(), order.DocNo)
	e.logg.Info(ctx, "order created")
	return order, nil
}

// UpdateOrderStatus moves an order along DRAFT → ISSUED → CANCELLED.
// Issuing applies the stock decrements; cancelling an issued order writes
// compensating IN movements back to the order's original location, even if
// stock was transferred elsewhere in the meantime.
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, target enums.DocumentStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document status %q", target)
	}

	var order *models.Order
	err := e.run(ctx, enums.DocumentFamilyOrder, func(tx *gorm.DB) error {
		doc, err := e.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !doc.Status.CanTransition(target) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"order %d cannot move from %s to %s", doc.DocNo, doc.Status, target)
		}

		switch target {
		case enums.DocumentStatusIssued:
			if err := e.issueOrderLocked(ctx, tx, doc); err != nil {
				return err
			}
		case enums.DocumentStatusCancelled:
			if doc.Status == enums.DocumentStatusIssued {
				if err := e.reverseOrderStock(ctx, tx, doc); err != nil {
					return err
				}
			}
			doc.Status = enums.DocumentStatusCancelled
			if err := tx.WithContext(ctx).Model(&models.Order{}).
				Where("id = ?", doc.ID).
				Update("status", doc.Status).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
		}
		order = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = e.logg.WithDocument(ctx, enums.DocumentFamilyOrder.String(), order.DocNo)
	e.logg.Info(ctx, "order status updated")
	return order, nil
}

func (e *Engine) lockOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var doc models.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	if err := tx.WithContext(ctx).Where("order_id = ?", doc.ID).Find(&doc.Items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	return &doc, nil
}

// issueOrderLocked applies the stock side effects and flips the status. The
// caller holds the order lock.
func (e *Engine) issueOrderLocked(ctx context.Context, tx *gorm.DB, doc *models.Order) error {
	lines := make([]LineInput, 0, len(doc.Items))
	ids := make([]uuid.UUID, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, LineInput{ProductID: item.ProductID, Qty: item.Qty})
		ids = append(ids, item.ProductID)
	}
	products, err := e.catalog.ActiveProducts(ctx, tx, ids)
	if err != nil {
		return err
	}
	if err := e.preflightAvailability(ctx, tx, doc.LocationID, lines, products); err != nil {
		return err
	}

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
			ReferenceType:  enums.ReferenceTypeOrder,
			ReferenceID:    doc.ID,
		}); err != nil {
			return err
		}
	}

	doc.Status = enums.DocumentStatusIssued
	if err := tx.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", doc.ID).
		Update("status", doc.Status).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return nil
}

// reverseOrderStock writes compensating IN movements for a cancelled issued
// order. History stays intact; the original OUT rows are never touched.
func (e *Engine) reverseOrderStock(ctx context.Context, tx *gorm.DB, doc *models.Order) error {
	note := "order cancellation reversal"
	for _, item := range doc.Items {
		snap, err := e.ledger.ApplyDelta(ctx, tx, item.ProductID, doc.LocationID, item.Qty)
		if err != nil {
			return err
		}
		if err := e.movements.Record(ctx, tx, models.InventoryMovement{
			ProductID:     item.ProductID,
			Kind:          enums.MovementKindIn,
			Qty:           item.Qty,
			StockBefore:   snap.StockBefore,
			StockAfter:    snap.StockAfter,
			ToLocationID:  &doc.LocationID,
			ReferenceType: enums.ReferenceTypeOrder,
			ReferenceID:   doc.ID,
			Note:          &note,
		}); err != nil {
			return err
		}
	}
	return nil
}
