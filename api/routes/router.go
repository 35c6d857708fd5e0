package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nandarlin/shopbooks-backend/api/controllers"
	"github.com/nandarlin/shopbooks-backend/api/middleware"
	"github.com/nandarlin/shopbooks-backend/internal/issuance"
	"github.com/nandarlin/shopbooks-backend/internal/reports"
	"github.com/nandarlin/shopbooks-backend/pkg/config"
	"github.com/nandarlin/shopbooks-backend/pkg/db"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	pkgredis "github.com/nandarlin/shopbooks-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health and metrics endpoints plus
// the versioned document and report APIs.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	idemStore pkgredis.IdempotencyStore,
	engine *issuance.Engine,
	reportsSvc reports.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if cfg.FeatureFlags.Idempotency && idemStore != nil {
		r.Use(middleware.Idempotency(idemStore, logg))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/purchase-bills", controllers.PurchaseBillCreate(engine, logg))
		r.Post("/purchase-returns", controllers.PurchaseReturnCreate(engine, logg))

		r.Post("/pos-sales", controllers.PosSaleCreate(engine, logg))

		r.Post("/orders", controllers.OrderCreate(engine, logg))
		r.Post("/orders/{orderID}/status", controllers.OrderStatusUpdate(engine, logg))

		r.Post("/invoices", controllers.InvoiceCreate(engine, logg))
		r.Post("/invoices/{invoiceID}/payments", controllers.InvoicePaymentCreate(engine, logg))
		r.Post("/sales-returns", controllers.SalesReturnCreate(engine, logg))

		r.Post("/transfers", controllers.TransferCreate(engine, logg))
		r.Post("/write-offs", controllers.WriteOffCreate(engine, logg))
		r.Post("/adjustments", controllers.AdjustmentCreate(engine, logg))
		r.Post("/unitizations", controllers.UnitizationCreate(engine, logg))

		r.Post("/rental-bills", controllers.RentalBillCreate(engine, logg))
		r.Post("/units/{unitID}/return", controllers.RentalUnitReturn(engine, logg))
		r.Patch("/units/{unitID}/identity", controllers.UnitIdentityUpdate(engine, logg))
		r.Get("/units", controllers.UnitList(reportsSvc, logg))
		r.Get("/units/{unitID}/history", controllers.UnitHistory(reportsSvc, logg))

		r.Get("/reports/stock", controllers.StockReport(reportsSvc, logg))
		r.Get("/reports/balances", controllers.AccountBalances(reportsSvc, logg))
		r.Get("/products/{productID}/movements", controllers.ProductMovements(reportsSvc, logg))
	})

	return r
}
