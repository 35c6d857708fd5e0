package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Snapshot carries the exact before/after values of one stock mutation.
// Movement rows copy these verbatim.
type Snapshot struct {
	StockBefore    int64
	StockAfter     int64
	LocationBefore int64
	LocationAfter  int64
}

// ShortfallDetails names the entity and quantities behind an
// InsufficientStock rejection.
type ShortfallDetails struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Requested  int64     `json:"requested"`
	Available  int64     `json:"available"`
	Scope      string    `json:"scope"`
}

// Ledger is the single write path for stock quantities. Every mutation
// updates the product total and the location row in one step, so the total
// always equals the sum of location quantities.
type Ledger interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, delta int64) (Snapshot, error)
	SetQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, target int64) (Snapshot, int64, error)
	LocationQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID) (int64, error)
}

type ledger struct{}

// NewLedger returns the stock ledger.
func NewLedger() Ledger {
	return ledger{}
}

func (ledger) ApplyDelta(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, delta int64) (Snapshot, error) {
	return applyDelta(ctx, tx, productID, locationID, delta)
}

// SetQuantity drives the location quantity to target and returns the delta it
// applied alongside the snapshot.
func (ledger) SetQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, target int64) (Snapshot, int64, error) {
	if target < 0 {
		return Snapshot{}, 0, pkgerrors.Newf(pkgerrors.CodeValidation, "target quantity %d is negative", target)
	}
	current, err := lockLocationStock(ctx, tx, productID, locationID)
	if err != nil {
		return Snapshot{}, 0, err
	}
	delta := target - current.Qty
	if delta == 0 {
		product, err := lockProduct(ctx, tx, productID)
		if err != nil {
			return Snapshot{}, 0, err
		}
		snap := Snapshot{
			StockBefore:    product.StockQty,
			StockAfter:     product.StockQty,
			LocationBefore: current.Qty,
			LocationAfter:  current.Qty,
		}
		return snap, 0, nil
	}
	snap, err := applyDelta(ctx, tx, productID, locationID, delta)
	if err != nil {
		return Snapshot{}, 0, err
	}
	return snap, delta, nil
}

func (ledger) LocationQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID) (int64, error) {
	var row models.LocationStock
	err := tx.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query location stock")
	}
	return row.Qty, nil
}

func applyDelta(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, delta int64) (Snapshot, error) {
	if delta == 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must be non-zero")
	}

	product, err := lockProduct(ctx, tx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	locRow, err := lockLocationStock(ctx, tx, productID, locationID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		StockBefore:    product.StockQty,
		LocationBefore: locRow.Qty,
		StockAfter:     product.StockQty + delta,
		LocationAfter:  locRow.Qty + delta,
	}
	if snap.LocationAfter < 0 {
		return Snapshot{}, pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"location stock would go negative for product %s", productID).
			WithDetails(ShortfallDetails{
				ProductID:  productID,
				LocationID: locationID,
				Requested:  -delta,
				Available:  locRow.Qty,
				Scope:      "location",
			})
	}
	if snap.StockAfter < 0 {
		return Snapshot{}, pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"total stock would go negative for product %s", productID).
			WithDetails(ShortfallDetails{
				ProductID:  productID,
				LocationID: locationID,
				Requested:  -delta,
				Available:  product.StockQty,
				Scope:      "total",
			})
	}

	if err := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_qty", snap.StockAfter).Error; err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
	}
	if err := tx.WithContext(ctx).
		Model(&models.LocationStock{}).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		Update("qty", snap.LocationAfter).Error; err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location stock")
	}
	return snap, nil
}

func lockProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
	}
	return &product, nil
}

// lockLocationStock returns the locked (location, product) row, creating it
// at zero on first use.
func lockLocationStock(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID) (*models.LocationStock, error) {
	var row models.LocationStock
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.LocationStock{LocationID: locationID, ProductID: productID, Qty: 0}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location stock row")
		}
		return &row, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock location stock")
	}
	return &row, nil
}
