package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/catalog"
	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/internal/issuance"
	"github.com/nandarlin/shopbooks-backend/internal/parties"
	"github.com/nandarlin/shopbooks-backend/internal/reports"
	"github.com/nandarlin/shopbooks-backend/internal/sequence"
	"github.com/nandarlin/shopbooks-backend/internal/stock"
	"github.com/nandarlin/shopbooks-backend/pkg/config"
	"github.com/nandarlin/shopbooks-backend/pkg/db"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type fixture struct {
	handler http.Handler
	db      *gorm.DB
	shop    models.Location
	product models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
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

	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	identitySvc, err := identity.NewService(identity.NewRepo(), sequence.NewService(), "SB")
	if err != nil {
		t.Fatalf("identity service: %v", err)
	}
	engine, err := issuance.NewEngine(
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
		nil,
		"SHOP",
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	reportsSvc, err := reports.NewService(conn, finance.NewService())
	if err != nil {
		t.Fatalf("reports service: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Env = "dev"

	shop := models.Location{Code: "SHOP", Name: "Shop", IsActive: true}
	if err := conn.Create(&shop).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	product := models.Product{Title: "Chain Bar", Type: enums.ProductTypePart, PriceCents: 2500, StockQty: 10, IsActive: true}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := conn.Create(&models.LocationStock{LocationID: shop.ID, ProductID: product.ID, Qty: 10}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	cash := models.LedgerAccount{Name: "Cash Drawer", Kind: enums.AccountKindCash, IsActive: true}
	if err := conn.Create(&cash).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}

	handler := NewRouter(cfg, logg, stubPinger{}, nil, nil, engine, reportsSvc)
	return &fixture{handler: handler, db: conn, shop: shop, product: product}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func TestRouterHealth(t *testing.T) {
	f := newFixture(t)

	live := f.do(t, http.MethodGet, "/health/live", "")
	if live.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", live.Code)
	}
	if got := live.Header().Get("X-Shopbooks-Env"); got != "dev" {
		t.Fatalf("expected env header, got %q", got)
	}

	ready := f.do(t, http.MethodGet, "/health/ready", "")
	if ready.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d body %s", ready.Code, ready.Body.String())
	}
}

func TestRouterPosSaleFlow(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"payment_method":"cash","lines":[{"product_id":%q,"qty":3}]}`, f.product.ID)
	resp := f.do(t, http.MethodPost, "/api/v1/pos-sales", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			DocNo      int64  `json:"doc_no"`
			Status     string `json:"status"`
			TotalCents int64  `json:"total_cents"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.DocNo != 1 || envelope.Data.Status != "issued" || envelope.Data.TotalCents != 7500 {
		t.Fatalf("unexpected sale %+v", envelope.Data)
	}

	var product models.Product
	if err := f.db.First(&product, "id = ?", f.product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", product.StockQty)
	}

	report := f.do(t, http.MethodGet, "/api/v1/reports/stock", "")
	if report.Code != http.StatusOK {
		t.Fatalf("report: expected 200 got %d", report.Code)
	}
	if !strings.Contains(report.Body.String(), `"total_qty":7`) {
		t.Fatalf("expected report to show 7 units, got %s", report.Body.String())
	}
}

func TestRouterRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"payment_method":"cash","lines":[{"product_id":%q,"qty":99}]}`, f.product.ID)
	resp := f.do(t, http.MethodPost, "/api/v1/pos-sales", body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "INSUFFICIENT_STOCK") {
		t.Fatalf("expected INSUFFICIENT_STOCK code, got %s", resp.Body.String())
	}

	var product models.Product
	if err := f.db.First(&product, "id = ?", f.product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 10 {
		t.Fatalf("failed sale must not move stock, got %d", product.StockQty)
	}
}

func TestRouterRejectsUnknownFields(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/pos-sales", `{"payment_method":"cash","bogus":true}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
