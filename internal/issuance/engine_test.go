package issuance

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/catalog"
	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/internal/parties"
	"github.com/nandarlin/shopbooks-backend/internal/sequence"
	"github.com/nandarlin/shopbooks-backend/internal/stock"
	"github.com/nandarlin/shopbooks-backend/pkg/db"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type harness struct {
	db     *gorm.DB
	engine *Engine
	shop   models.Location
	wh     models.Location
	cash   models.LedgerAccount
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := "file:issuance_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{}, &models.Location{}, &models.LocationStock{},
		&models.Unit{}, &models.UnitRevision{}, &models.InventoryMovement{},
		&models.LedgerAccount{}, &models.LedgerEntry{}, &models.SequenceCounter{},
		&models.Party{}, &models.Order{}, &models.OrderItem{},
		&models.SalesInvoice{}, &models.SalesInvoiceItem{},
		&models.PurchaseBill{}, &models.PurchaseBillItem{},
		&models.SalesReturn{}, &models.SalesReturnItem{},
		&models.PurchaseReturn{}, &models.PurchaseReturnItem{},
		&models.WriteOff{}, &models.WriteOffItem{},
		&models.StockTransfer{}, &models.StockTransferItem{},
		&models.RentalBill{}, &models.RentalBillItem{},
		&models.PosSale{}, &models.PosSaleItem{},
		&models.InventoryAdjustment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	identitySvc, err := identity.NewService(identity.NewRepo(), sequence.NewService(), "SB")
	if err != nil {
		t.Fatalf("identity service: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "issuance-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	engine, err := NewEngine(
		db.FromConn(conn),
		sequence.NewService(),
		identitySvc,
		identity.NewRepo(),
		stock.NewLedger(),
		stock.NewMovementLog(),
		finance.NewService(),
		catalog.NewService(),
		parties.NewService(),
		logg,
		fixedClock{at: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		"SHOP",
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	h := &harness{db: conn, engine: engine}
	h.shop = models.Location{Code: "SHOP", Name: "Shop Floor", IsActive: true}
	h.wh = models.Location{Code: "WAREHOUSE", Name: "Warehouse", IsActive: true}
	if err := conn.Create(&h.shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	if err := conn.Create(&h.wh).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	h.cash = models.LedgerAccount{Name: "Cash drawer", Kind: enums.AccountKindCash, IsActive: true}
	if err := conn.Create(&h.cash).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return h
}

func (h *harness) seedProduct(t *testing.T, title string, priceCents, shopQty int64) models.Product {
	t.Helper()
	product := models.Product{
		Title:      title,
		Type:       enums.ProductTypeSale,
		PriceCents: priceCents,
		StockQty:   shopQty,
		IsActive:   true,
	}
	if err := h.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if shopQty != 0 {
		row := models.LocationStock{LocationID: h.shop.ID, ProductID: product.ID, Qty: shopQty}
		if err := h.db.Create(&row).Error; err != nil {
			t.Fatalf("seed location stock: %v", err)
		}
	}
	return product
}

func (h *harness) seedTrackedProduct(t *testing.T, title string, serialRequired bool) models.Product {
	t.Helper()
	brand, model := "Honda", "GX200"
	product := models.Product{
		Title:          title,
		Type:           enums.ProductTypeSale,
		PriceCents:     50_000,
		IsAssetTracked: true,
		SerialRequired: serialRequired,
		Brand:          &brand,
		Model:          &model,
		IsActive:       true,
	}
	if err := h.db.Create(&product).Error; err != nil {
		t.Fatalf("seed tracked product: %v", err)
	}
	return product
}

func (h *harness) seedParty(t *testing.T, partyType enums.PartyType) models.Party {
	t.Helper()
	party := models.Party{Type: partyType, Name: string(partyType) + " one", IsActive: true}
	if err := h.db.Create(&party).Error; err != nil {
		t.Fatalf("seed party: %v", err)
	}
	return party
}

// checkStockInvariant asserts Product.stock == Σ location quantities.
func (h *harness) checkStockInvariant(t *testing.T, productID uuid.UUID) (int64, map[uuid.UUID]int64) {
	t.Helper()
	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	var rows []models.LocationStock
	if err := h.db.Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		t.Fatalf("load location stock: %v", err)
	}
	var sum int64
	perLocation := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		if row.Qty < 0 {
			t.Fatalf("negative location stock %d at %s", row.Qty, row.LocationID)
		}
		sum += row.Qty
		perLocation[row.LocationID] = row.Qty
	}
	if product.StockQty < 0 {
		t.Fatalf("negative product stock %d", product.StockQty)
	}
	if product.StockQty != sum {
		t.Fatalf("stock invariant broken: total %d, location sum %d", product.StockQty, sum)
	}
	return product.StockQty, perLocation
}

func (h *harness) movements(t *testing.T, refID uuid.UUID) []models.InventoryMovement {
	t.Helper()
	var rows []models.InventoryMovement
	if err := h.db.Where("reference_id = ?", refID).Order("created_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	return rows
}

func TestIssuePurchaseBill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("receivesIntoWarehouse", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)
		supplier := h.seedParty(t, enums.PartyTypeSupplier)

		bill, err := h.engine.IssuePurchaseBill(ctx, IssuePurchaseBillRequest{
			SupplierID: &supplier.ID,
			LocationID: h.wh.ID,
			Lines:      []PurchaseLineInput{{ProductID: product.ID, Qty: 5, UnitCostCents: 900}},
		})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if bill.DocNo != 1 || bill.Status != enums.DocumentStatusIssued {
			t.Fatalf("unexpected bill %+v", bill)
		}
		if bill.TotalCents != 4500 {
			t.Fatalf("expected total 4500, got %d", bill.TotalCents)
		}

		total, perLocation := h.checkStockInvariant(t, product.ID)
		if total != 15 || perLocation[h.wh.ID] != 5 || perLocation[h.shop.ID] != 10 {
			t.Fatalf("unexpected stock: total %d, per-location %v", total, perLocation)
		}
		moves := h.movements(t, bill.ID)
		if len(moves) != 1 {
			t.Fatalf("expected 1 movement, got %d", len(moves))
		}
		if moves[0].Kind != enums.MovementKindIn || moves[0].StockBefore != 10 || moves[0].StockAfter != 15 {
			t.Fatalf("unexpected movement %+v", moves[0])
		}
	})

	t.Run("trackedIntakeCreatesUnits", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedTrackedProduct(t, "Generator", true)
		serialA, serialB := "SN001", "SN002"

		bill, err := h.engine.IssuePurchaseBill(ctx, IssuePurchaseBillRequest{
			LocationID: h.wh.ID,
			Lines:      []PurchaseLineInput{{ProductID: product.ID, Qty: 2, UnitCostCents: 30_000}},
			UnitIntake: []UnitIntakeRow{
				{ProductID: product.ID, Brand: "Honda", Model: "GX200", ManufacturerSerial: &serialA},
				{ProductID: product.ID, Brand: "Honda", Model: "GX200", ManufacturerSerial: &serialB},
			},
		})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		var units []models.Unit
		if err := h.db.Where("product_id = ?", product.ID).Find(&units).Error; err != nil {
			t.Fatalf("load units: %v", err)
		}
		if len(units) != 2 {
			t.Fatalf("expected 2 units, got %d", len(units))
		}
		for _, unit := range units {
			if unit.Status != enums.UnitStatusAvailable {
				t.Fatalf("expected available unit, got %s", unit.Status)
			}
			if unit.LocationID == nil || *unit.LocationID != h.wh.ID {
				t.Fatalf("expected unit at warehouse, got %v", unit.LocationID)
			}
		}
		_ = bill
	})

	t.Run("missingSerialAbortsEverything", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedTrackedProduct(t, "Generator", true)
		serialA, serialB := "SN001", "SN002"

		_, err := h.engine.IssuePurchaseBill(ctx, IssuePurchaseBillRequest{
			LocationID: h.wh.ID,
			Lines:      []PurchaseLineInput{{ProductID: product.ID, Qty: 3, UnitCostCents: 30_000}},
			UnitIntake: []UnitIntakeRow{
				{ProductID: product.ID, Brand: "Honda", Model: "GX200", ManufacturerSerial: &serialA},
				{ProductID: product.ID, Brand: "Honda", Model: "GX200", ManufacturerSerial: &serialB},
				{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
			},
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidIdentity) {
			t.Fatalf("expected invalid identity, got %v", err)
		}

		var unitCount, billCount, moveCount int64
		h.db.Model(&models.Unit{}).Count(&unitCount)
		h.db.Model(&models.PurchaseBill{}).Count(&billCount)
		h.db.Model(&models.InventoryMovement{}).Count(&moveCount)
		if unitCount != 0 || billCount != 0 || moveCount != 0 {
			t.Fatalf("expected full rollback, got units=%d bills=%d movements=%d", unitCount, billCount, moveCount)
		}
		total, _ := h.checkStockInvariant(t, product.ID)
		if total != 0 {
			t.Fatalf("expected untouched stock, got %d", total)
		}
	})
}

func TestCreatePosSale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sellsAndPostsPayment", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)

		sale, err := h.engine.CreatePosSale(ctx, CreatePosSaleRequest{
			PaymentMethod: enums.PaymentMethodCash,
			Lines:         []LineInput{{ProductID: product.ID, Qty: 3}},
		})
		if err != nil {
			t.Fatalf("sale: %v", err)
		}
		if sale.TotalCents != 4500 || sale.AccountID != h.cash.ID {
			t.Fatalf("unexpected sale %+v", sale)
		}

		total, perLocation := h.checkStockInvariant(t, product.ID)
		if total != 7 || perLocation[h.shop.ID] != 7 {
			t.Fatalf("expected 7 at shop, got total %d %v", total, perLocation)
		}

		var entries []models.LedgerEntry
		if err := h.db.Where("account_id = ?", h.cash.ID).Find(&entries).Error; err != nil {
			t.Fatalf("load entries: %v", err)
		}
		if len(entries) != 1 || entries[0].Direction != enums.EntryDirectionIn || entries[0].AmountCents != 4500 {
			t.Fatalf("unexpected ledger entries %+v", entries)
		}
		moves := h.movements(t, sale.ID)
		if len(moves) != 1 || moves[0].Kind != enums.MovementKindOut {
			t.Fatalf("unexpected movements %+v", moves)
		}
	})

	t.Run("shortfallFailsWholeSale", func(t *testing.T) {
		h := newHarness(t)
		plenty := h.seedProduct(t, "Oil Filter", 1500, 100)
		scarce := h.seedProduct(t, "Air Filter", 2500, 1)

		_, err := h.engine.CreatePosSale(ctx, CreatePosSaleRequest{
			PaymentMethod: enums.PaymentMethodCash,
			Lines: []LineInput{
				{ProductID: plenty.ID, Qty: 2},
				{ProductID: scarce.ID, Qty: 5},
			},
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
		total, _ := h.checkStockInvariant(t, plenty.ID)
		if total != 100 {
			t.Fatalf("expected first line untouched, got %d", total)
		}
		var saleCount int64
		h.db.Model(&models.PosSale{}).Count(&saleCount)
		if saleCount != 0 {
			t.Fatalf("expected no sale rows, got %d", saleCount)
		}
	})

	t.Run("oversellAcrossSales", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)

		succeeded, failed := 0, 0
		for i := 0; i < 5; i++ {
			_, err := h.engine.CreatePosSale(ctx, CreatePosSaleRequest{
				PaymentMethod: enums.PaymentMethodCash,
				Lines:         []LineInput{{ProductID: product.ID, Qty: 3}},
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
			t.Fatalf("expected 3 sales to fit, got %d ok / %d short", succeeded, failed)
		}
		total, _ := h.checkStockInvariant(t, product.ID)
		if total != 1 {
			t.Fatalf("expected 1 left, got %d", total)
		}
	})
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issueThenCancelRestoresStock", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)
		customer := h.seedParty(t, enums.PartyTypeCustomer)

		order, err := h.engine.CreateOrder(ctx, CreateOrderRequest{
			CustomerID: &customer.ID,
			Lines:      []LineInput{{ProductID: product.ID, Qty: 4}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if order.Status != enums.DocumentStatusDraft {
			t.Fatalf("expected draft, got %s", order.Status)
		}
		total, _ := h.checkStockInvariant(t, product.ID)
		if total != 10 {
			t.Fatalf("draft must not move stock, got %d", total)
		}

		if _, err := h.engine.UpdateOrderStatus(ctx, order.ID, enums.DocumentStatusIssued); err != nil {
			t.Fatalf("issue: %v", err)
		}
		total, _ = h.checkStockInvariant(t, product.ID)
		if total != 6 {
			t.Fatalf("expected 6 after issue, got %d", total)
		}

		if _, err := h.engine.UpdateOrderStatus(ctx, order.ID, enums.DocumentStatusCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		total, _ = h.checkStockInvariant(t, product.ID)
		if total != 10 {
			t.Fatalf("expected restored 10, got %d", total)
		}

		moves := h.movements(t, order.ID)
		if len(moves) != 2 {
			t.Fatalf("expected OUT + compensating IN, got %d movements", len(moves))
		}
	})

	t.Run("cancelledIsTerminal", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)

		order, err := h.engine.CreateOrder(ctx, CreateOrderRequest{
			Lines: []LineInput{{ProductID: product.ID, Qty: 1}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := h.engine.UpdateOrderStatus(ctx, order.ID, enums.DocumentStatusCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		_, err = h.engine.UpdateOrderStatus(ctx, order.ID, enums.DocumentStatusIssued)
		if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("expected state conflict, got %v", err)
		}
	})
}

func TestCreateStockTransfer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	product := h.seedProduct(t, "Oil Filter", 1500, 10)

	transfer, err := h.engine.CreateStockTransfer(ctx, CreateStockTransferRequest{
		FromLocationID: h.shop.ID,
		ToLocationID:   h.wh.ID,
		Lines:          []LineInput{{ProductID: product.ID, Qty: 4}},
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	total, perLocation := h.checkStockInvariant(t, product.ID)
	if total != 10 || perLocation[h.shop.ID] != 6 || perLocation[h.wh.ID] != 4 {
		t.Fatalf("unexpected stock after transfer: total %d %v", total, perLocation)
	}
	moves := h.movements(t, transfer.ID)
	if len(moves) != 2 {
		t.Fatalf("expected OUT + IN movements, got %d", len(moves))
	}

	_, err = h.engine.CreateStockTransfer(ctx, CreateStockTransferRequest{
		FromLocationID: h.shop.ID,
		ToLocationID:   h.shop.ID,
		Lines:          []LineInput{{ProductID: product.ID, Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for same-location transfer, got %v", err)
	}
}

func TestCreateWriteOff(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	product := h.seedProduct(t, "Oil Filter", 1500, 10)

	writeOff, err := h.engine.CreateWriteOff(ctx, CreateWriteOffRequest{
		LocationID: h.shop.ID,
		Reason:     "water damage",
		Lines:      []LineInput{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("write off: %v", err)
	}
	total, _ := h.checkStockInvariant(t, product.ID)
	if total != 8 {
		t.Fatalf("expected 8, got %d", total)
	}
	moves := h.movements(t, writeOff.ID)
	if len(moves) != 1 || moves[0].Note == nil || *moves[0].Note != "water damage" {
		t.Fatalf("expected reason on movement, got %+v", moves)
	}

	_, err = h.engine.CreateWriteOff(ctx, CreateWriteOffRequest{
		LocationID: h.shop.ID,
		Reason:     "   ",
		Lines:      []LineInput{{ProductID: product.ID, Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank reason, got %v", err)
	}
}

func TestAdjustInventory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deltaAndSet", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)

		adj, err := h.engine.AdjustInventory(ctx, AdjustInventoryRequest{
			ProductID:  product.ID,
			LocationID: h.shop.ID,
			Mode:       enums.AdjustModeDelta,
			Value:      -2,
			Reason:     "count correction",
		})
		if err != nil {
			t.Fatalf("delta adjust: %v", err)
		}
		if adj.AppliedDelta != -2 {
			t.Fatalf("expected applied -2, got %d", adj.AppliedDelta)
		}

		adj, err = h.engine.AdjustInventory(ctx, AdjustInventoryRequest{
			ProductID:  product.ID,
			LocationID: h.shop.ID,
			Mode:       enums.AdjustModeSet,
			Value:      20,
		})
		if err != nil {
			t.Fatalf("set adjust: %v", err)
		}
		if adj.AppliedDelta != 12 {
			t.Fatalf("expected applied 12, got %d", adj.AppliedDelta)
		}
		total, _ := h.checkStockInvariant(t, product.ID)
		if total != 20 {
			t.Fatalf("expected 20, got %d", total)
		}
	})

	t.Run("setToCurrentWritesNoMovement", func(t *testing.T) {
		h := newHarness(t)
		product := h.seedProduct(t, "Oil Filter", 1500, 10)

		adj, err := h.engine.AdjustInventory(ctx, AdjustInventoryRequest{
			ProductID:  product.ID,
			LocationID: h.shop.ID,
			Mode:       enums.AdjustModeSet,
			Value:      10,
		})
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
		if adj.AppliedDelta != 0 {
			t.Fatalf("expected zero applied delta, got %d", adj.AppliedDelta)
		}
		if moves := h.movements(t, adj.ID); len(moves) != 0 {
			t.Fatalf("expected no movement, got %d", len(moves))
		}
	})
}

func TestIssueRentalBill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	customer := h.seedParty(t, enums.PartyTypeCustomer)
	serial := "SN100"
	unit := models.Unit{
		Ownership:          enums.UnitOwnershipOwned,
		Brand:              "Honda",
		Model:              "GX200",
		ManufacturerSerial: &serial,
		SerialKey:          "HONDA/GX200/SN100",
		Status:             enums.UnitStatusAvailable,
	}
	if err := h.db.Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	bill, err := h.engine.IssueRentalBill(ctx, IssueRentalBillRequest{
		CustomerID: customer.ID,
		Lines:      []RentalLineInput{{UnitID: unit.ID, Days: 3, DailyRateCents: 5_000}},
		Payment:    &PaymentInput{Method: enums.PaymentMethodCash, AmountCents: 15_000},
	})
	if err != nil {
		t.Fatalf("rental: %v", err)
	}
	if bill.TotalCents != 15_000 {
		t.Fatalf("expected total 15000, got %d", bill.TotalCents)
	}

	var rented models.Unit
	if err := h.db.First(&rented, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("reload unit: %v", err)
	}
	if rented.Status != enums.UnitStatusRentedOut {
		t.Fatalf("expected rented_out, got %s", rented.Status)
	}

	_, err = h.engine.IssueRentalBill(ctx, IssueRentalBillRequest{
		CustomerID: customer.ID,
		Lines:      []RentalLineInput{{UnitID: unit.ID, Days: 1, DailyRateCents: 5_000}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on rented unit, got %v", err)
	}

	if _, err := h.engine.ReturnRentedUnit(ctx, unit.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := h.db.First(&rented, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("reload unit: %v", err)
	}
	if rented.Status != enums.UnitStatusAvailable {
		t.Fatalf("expected available after return, got %s", rented.Status)
	}
}

func TestUnitizeStock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	product := h.seedTrackedProduct(t, "Generator", false)
	if err := h.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock_qty", 3).Error; err != nil {
		t.Fatalf("set stock: %v", err)
	}
	row := models.LocationStock{LocationID: h.shop.ID, ProductID: product.ID, Qty: 3}
	if err := h.db.Create(&row).Error; err != nil {
		t.Fatalf("seed location stock: %v", err)
	}

	units, err := h.engine.UnitizeStock(ctx, UnitizeStockRequest{
		ProductID:  product.ID,
		LocationID: h.shop.ID,
		Ownership:  enums.UnitOwnershipOwned,
		Rows: []UnitIntakeRow{
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
		},
	})
	if err != nil {
		t.Fatalf("unitize: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	total, _ := h.checkStockInvariant(t, product.ID)
	if total != 3 {
		t.Fatalf("unitization must not change totals, got %d", total)
	}

	_, err = h.engine.UnitizeStock(ctx, UnitizeStockRequest{
		ProductID:  product.ID,
		LocationID: h.shop.ID,
		Ownership:  enums.UnitOwnershipOwned,
		Rows: []UnitIntakeRow{
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
			{ProductID: product.ID, Brand: "Honda", Model: "GX200"},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error when rows exceed stock, got %v", err)
	}
}
