package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/nandarlin/shopbooks-backend/api/routes"
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
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	"github.com/nandarlin/shopbooks-backend/pkg/migrate"
	pkgredis "github.com/nandarlin/shopbooks-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis only backs idempotency replay protection; the engine itself
	// never needs it, so a missing redis config just disables the feature.
	var redisClient *pkgredis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	identitySvc, err := identity.NewService(identity.NewRepo(), sequence.NewService(), cfg.Shop.TagPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	engine, err := issuance.NewEngine(
		dbClient,
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
		cfg.Shop.DefaultLocationCode,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create issuance engine", err)
		os.Exit(1)
	}

	reportsSvc, err := reports.NewService(dbClient.DB(), finance.NewService())
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var redisP pkgredis.Pinger
	var idemStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idemStore = redisClient
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisP, idemStore, engine, reportsSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
