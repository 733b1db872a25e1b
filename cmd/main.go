// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/cache"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/config"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/database"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/events"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/handler"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setLogLevel(cfg.LogLevel)
	log.Info().Str("appName", cfg.AppName).Str("store", cfg.StoreDriver).Msg("application starting")

	ctx := context.Background()

	// ── 1. Storage ────────────────────────────────────────────────────────
	colls, closeStore, err := openCollections(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStore()

	var vendorDir service.VendorDirectory = repository.NewStore[model.Vendor](colls.vendors)
	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, vendor reads will fall through")
		}
		vendorDir = cache.NewVendorDirectory(repository.NewStore[model.Vendor](colls.vendors), rdb, cfg.VendorCacheTTL)
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.VendorCacheTTL).Msg("vendor cache enabled")
	}

	// ── 2. Lifecycle events ───────────────────────────────────────────────
	var pub events.Publisher = events.NewLogPublisher(log.Logger)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Warn().Err(err).Msg("kafka writer close")
			}
		}()
		pub = kp
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("publishing lifecycle events to kafka")
	}

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	vendorSvc := service.NewVendorService(vendorDir, service.SystemClock)
	svc := handler.Services{
		Vendors: vendorSvc,
		Emergency: service.NewEmergencyService(
			repository.NewStore[model.EmergencyRequest](colls.emergency),
			vendorSvc, pub, service.SystemClock),
		Surplus: service.NewSurplusService(
			repository.NewStore[model.SurplusListing](colls.surplus),
			vendorSvc, pub, service.SystemClock),
		Prices: service.NewPriceService(
			repository.NewStore[model.PriceEntry](colls.prices),
			vendorSvc, service.ManualReview{}, pub, service.SystemClock),
	}

	if cfg.SeedSampleData {
		ids, err := vendorSvc.SeedSample(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample vendors")
		}
		if len(ids) > 0 {
			log.Info().Strs("vendorIds", ids).Msg("seeded sample vendors")
		}
	}

	r := handler.NewRouter(svc, handler.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.Origins(),
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

type collections struct {
	vendors   repository.Collection
	emergency repository.Collection
	surplus   repository.Collection
	prices    repository.Collection
}

// openCollections returns the document collections for the configured
// driver and a func releasing whatever backs them.
func openCollections(ctx context.Context, cfg config.Config) (collections, func(), error) {
	if cfg.StoreDriver != config.DriverPostgres {
		return collections{
			vendors:   repository.NewMemoryCollection(),
			emergency: repository.NewMemoryCollection(),
			surplus:   repository.NewMemoryCollection(),
			prices:    repository.NewMemoryCollection(),
		}, func() {}, nil
	}

	pool, err := database.NewPool(ctx, database.FromAppConfig(cfg))
	if err != nil {
		return collections{}, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return collections{}, nil, fmt.Errorf("migrations: %w", err)
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to PostgreSQL")

	return collections{
		vendors:   repository.NewPostgresCollection(pool, "vendors"),
		emergency: repository.NewPostgresCollection(pool, "emergency_requests"),
		surplus:   repository.NewPostgresCollection(pool, "surplus_listings"),
		prices:    repository.NewPostgresCollection(pool, "price_entries"),
	}, pool.Close, nil
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
