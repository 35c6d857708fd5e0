package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	"github.com/nandarlin/shopbooks-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.Location{}, &models.LocationStock{},
		&models.InventoryMovement{}, &models.LedgerAccount{}, &models.LedgerEntry{},
		&models.Unit{}, &models.UnitRevision{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestStockReport(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, err := NewService(db, finance.NewService())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	shop := models.Location{Code: "SHOP", Name: "Shop", IsActive: true}
	wh := models.Location{Code: "WAREHOUSE", Name: "Warehouse", IsActive: true}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&wh).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	product := models.Product{Title: "Oil Filter", Type: enums.ProductTypePart, PriceCents: 1500, StockQty: 12, IsActive: true}
	inactive := models.Product{Title: "Old Part", Type: enums.ProductTypePart, PriceCents: 100, IsActive: false}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, row := range []models.LocationStock{
		{LocationID: shop.ID, ProductID: product.ID, Qty: 7},
		{LocationID: wh.ID, ProductID: product.ID, Qty: 5},
	} {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.StockReport(context.Background(), pagination.Params{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected only the active product, got %+v", page)
	}
	row := page.Items[0]
	if row.TotalQty != 12 || row.ByLocation["SHOP"] != 7 || row.ByLocation["WAREHOUSE"] != 5 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestMovementHistoryPagination(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, err := NewService(db, finance.NewService())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	productID := uuid.New()
	for i := 0; i < 5; i++ {
		move := models.InventoryMovement{
			ProductID:     productID,
			Kind:          enums.MovementKindIn,
			Qty:           1,
			StockBefore:   int64(i),
			StockAfter:    int64(i + 1),
			ReferenceType: enums.ReferenceTypePurchaseBill,
			ReferenceID:   uuid.New(),
			CreatedAt:     time.Date(2025, 6, 1, 9, i, 0, 0, time.UTC),
		}
		if err := db.Create(&move).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.MovementHistory(context.Background(), productID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("expected total 5 with 2 items, got %+v", page)
	}
	if page.Items[0].StockAfter != 5 {
		t.Fatalf("expected newest first, got %+v", page.Items[0])
	}
}

func TestAccountBalances(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, err := NewService(db, finance.NewService())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	account := models.LedgerAccount{Name: "Cash", Kind: enums.AccountKindCash, OpeningCents: 1000, IsActive: true}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, entry := range []models.LedgerEntry{
		{AccountID: account.ID, Direction: enums.EntryDirectionIn, AmountCents: 500, OccurredAt: time.Now()},
		{AccountID: account.ID, Direction: enums.EntryDirectionOut, AmountCents: 200, OccurredAt: time.Now()},
	} {
		e := entry
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	balances, err := svc.AccountBalances(context.Background())
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if len(balances) != 1 || balances[0].BalanceCents != 1300 {
		t.Fatalf("expected 1300, got %+v", balances)
	}
}

func TestListUnitsFiltersByStatus(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, err := NewService(db, finance.NewService())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	for i, status := range []enums.UnitStatus{
		enums.UnitStatusAvailable,
		enums.UnitStatusAvailable,
		enums.UnitStatusRentedOut,
	} {
		unit := models.Unit{
			Ownership: enums.UnitOwnershipOwned,
			Brand:     "Stihl",
			Model:     "MS250",
			SerialKey: "STIHL/MS250/SN00" + string(rune('1'+i)),
			Status:    status,
		}
		if err := db.Create(&unit).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := svc.ListUnits(context.Background(), nil, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 3 || len(all.Items) != 3 {
		t.Fatalf("expected all 3 units, got %+v", all)
	}

	rented := enums.UnitStatusRentedOut
	page, err := svc.ListUnits(context.Background(), &rented, pagination.Params{})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Status != rented {
		t.Fatalf("expected 1 rented unit, got %+v", page)
	}
}

func TestUnitHistory(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, err := NewService(db, finance.NewService())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	unit := models.Unit{
		Ownership: enums.UnitOwnershipOwned,
		Brand:     "Honda",
		Model:     "GX200",
		SerialKey: "HONDA/GX200/SN001",
		Status:    enums.UnitStatusAvailable,
	}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	rev := models.UnitRevision{UnitID: unit.ID, Field: "brand", OldValue: "Honda", NewValue: "Yamaha", Reason: "fix"}
	if err := db.Create(&rev).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, revisions, err := svc.UnitHistory(context.Background(), unit.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got.SerialKey != unit.SerialKey || len(revisions) != 1 {
		t.Fatalf("unexpected history %+v %+v", got, revisions)
	}
}
