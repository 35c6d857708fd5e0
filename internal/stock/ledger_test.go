package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Location{}, &models.LocationStock{}, &models.InventoryMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int64) models.Product {
	t.Helper()
	product := models.Product{
		Title:      "Oil Filter",
		Type:       enums.ProductTypePart,
		PriceCents: 1500,
		StockQty:   stock,
		IsActive:   true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedLocationStock(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int64) uuid.UUID {
	t.Helper()
	location := models.Location{Code: "SHOP-" + uuid.NewString()[:8], Name: "Shop", IsActive: true}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	if qty != 0 {
		row := models.LocationStock{LocationID: location.ID, ProductID: productID, Qty: qty}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed location stock: %v", err)
		}
	}
	return location.ID
}

func totals(t *testing.T, db *gorm.DB, productID uuid.UUID) (int64, int64) {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	var sum int64
	if err := db.Model(&models.LocationStock{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(qty), 0)").
		Scan(&sum).Error; err != nil {
		t.Fatalf("sum location stock: %v", err)
	}
	return product.StockQty, sum
}

func TestApplyDelta(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewLedger()

	t.Run("incrementCreatesLocationRow", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)
		locationID := seedLocationStock(t, db, product.ID, 0)

		var snap Snapshot
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			snap, err = ledger.ApplyDelta(ctx, tx, product.ID, locationID, 5)
			return err
		})
		if err != nil {
			t.Fatalf("apply delta: %v", err)
		}
		if snap.StockBefore != 10 || snap.StockAfter != 15 {
			t.Fatalf("unexpected total snapshot %+v", snap)
		}
		if snap.LocationBefore != 0 || snap.LocationAfter != 5 {
			t.Fatalf("unexpected location snapshot %+v", snap)
		}
		total, sum := totals(t, db, product.ID)
		if total != 15 || sum != 5 {
			t.Fatalf("expected total 15 / location sum 5, got %d / %d", total, sum)
		}
	})

	t.Run("decrementBelowLocationFails", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)
		locationID := seedLocationStock(t, db, product.ID, 3)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ledger.ApplyDelta(ctx, tx, product.ID, locationID, -4)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
		details, ok := pkgerrors.As(err).Details().(ShortfallDetails)
		if !ok {
			t.Fatalf("expected shortfall details, got %T", pkgerrors.As(err).Details())
		}
		if details.Available != 3 || details.Requested != 4 || details.Scope != "location" {
			t.Fatalf("unexpected details %+v", details)
		}

		total, sum := totals(t, db, product.ID)
		if total != 10 || sum != 3 {
			t.Fatalf("expected rollback to 10/3, got %d/%d", total, sum)
		}
	})

	t.Run("failedTxLeavesNothing", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)
		locationID := seedLocationStock(t, db, product.ID, 10)

		err := db.Transaction(func(tx *gorm.DB) error {
			if _, err := ledger.ApplyDelta(ctx, tx, product.ID, locationID, -2); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInternal, "forced rollback")
		})
		if err == nil {
			t.Fatal("expected rollback error")
		}
		total, sum := totals(t, db, product.ID)
		if total != 10 || sum != 10 {
			t.Fatalf("expected untouched 10/10, got %d/%d", total, sum)
		}
	})

	t.Run("zeroDeltaRejected", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)
		locationID := seedLocationStock(t, db, product.ID, 5)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ledger.ApplyDelta(ctx, tx, product.ID, locationID, 0)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("missingProduct", func(t *testing.T) {
		db := newTestDB(t)
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ledger.ApplyDelta(ctx, tx, uuid.New(), uuid.New(), 1)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestSequentialSalesNeverOversell(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewLedger()

	db := newTestDB(t)
	product := seedProduct(t, db, 10)
	locationID := seedLocationStock(t, db, product.ID, 10)

	succeeded, failed := 0, 0
	for i := 0; i < 5; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ledger.ApplyDelta(ctx, tx, product.ID, locationID, -3)
			return err
		})
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
			failed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 3 || failed != 2 {
		t.Fatalf("expected exactly 3 sales to fit, got %d ok / %d short", succeeded, failed)
	}
	total, sum := totals(t, db, product.ID)
	if total != 1 || sum != 1 {
		t.Fatalf("expected 1 remaining, got %d/%d", total, sum)
	}
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewLedger()

	t.Run("raisesAndLowers", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)
		locationID := seedLocationStock(t, db, product.ID, 10)

		err := db.Transaction(func(tx *gorm.DB) error {
			snap, delta, err := ledger.SetQuantity(ctx, tx, product.ID, locationID, 4)
			if err != nil {
				return err
			}
			if delta != -6 {
				t.Fatalf("expected delta -6, got %d", delta)
			}
			if snap.LocationAfter != 4 || snap.StockAfter != 4 {
				t.Fatalf("unexpected snapshot %+v", snap)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("set: %v", err)
		}
	})

	t.Run("noopReturnsZeroDelta", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 7)
		locationID := seedLocationStock(t, db, product.ID, 7)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, delta, err := ledger.SetQuantity(ctx, tx, product.ID, locationID, 7)
			if err != nil {
				return err
			}
			if delta != 0 {
				t.Fatalf("expected zero delta, got %d", delta)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("set: %v", err)
		}
	})

	t.Run("negativeTargetRejected", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 7)
		locationID := seedLocationStock(t, db, product.ID, 7)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, _, err := ledger.SetQuantity(ctx, tx, product.ID, locationID, -1)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMovementLogRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := NewMovementLog()

	t.Run("appends", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)

		err := db.Transaction(func(tx *gorm.DB) error {
			return log.Record(ctx, tx, models.InventoryMovement{
				ProductID:     product.ID,
				Kind:          enums.MovementKindIn,
				Qty:           5,
				StockBefore:   10,
				StockAfter:    15,
				ReferenceType: enums.ReferenceTypePurchaseBill,
				ReferenceID:   uuid.New(),
			})
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		var count int64
		if err := db.Model(&models.InventoryMovement{}).Count(&count).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 movement, got %d", count)
		}
	})

	t.Run("missingReference", func(t *testing.T) {
		db := newTestDB(t)
		product := seedProduct(t, db, 10)

		err := db.Transaction(func(tx *gorm.DB) error {
			return log.Record(ctx, tx, models.InventoryMovement{
				ProductID: product.ID,
				Kind:      enums.MovementKindIn,
				Qty:       5,
			})
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
