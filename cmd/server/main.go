// Command server runs the ticket lifecycle API.
//
// Startup order:
//  1. Load .env (best effort) and the environment configuration
//  2. Configure global logging (zerolog)
//  3. Open SQLite, migrate, attach GORM tracing
//  4. Configure OpenTelemetry export (optional)
//  5. Start the AMQP purchase-event consumer (optional)
//  6. Serve HTTP until SIGINT/SIGTERM, then drain gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-ticket-backend/internal/config"
	httpapi "github.com/tbourn/go-ticket-backend/internal/http"
	"github.com/tbourn/go-ticket-backend/internal/observability"
	"github.com/tbourn/go-ticket-backend/internal/queue"
	"github.com/tbourn/go-ticket-backend/internal/repo"
	"github.com/tbourn/go-ticket-backend/internal/services"
	"github.com/tbourn/go-ticket-backend/internal/sysutil"
)

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	// Best effort: containers inject real env, .env is for local runs.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		log.Fatal().Err(err).Msg("attach gorm tracing")
	}

	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Background intake of purchase-completed events.
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.AMQP.Enabled {
		issuer := services.NewIssuerService(db, repo.Store{})
		issuer.Validity = cfg.TicketValidity
		issuer.RenderServiceURL = cfg.RenderServiceURL
		issuer.RenderSize = cfg.RenderSize
		consumer := &queue.Consumer{
			Cfg:    cfg.AMQP,
			DB:     db,
			Issuer: issuer,
			Log:    log.With().Str("component", "amqp-consumer").Logger(),
		}
		go consumer.Run(consumerCtx)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, rdb, cfg)

	srv := httpapi.NewHTTPServer(cfg, r)

	log.Info().
		Str("addr", srv.Addr).
		Str("base_path", cfg.APIBasePath).
		Bool("amqp", cfg.AMQP.Enabled).
		Bool("redis", rdb != nil).
		Msg("api listening")

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		log.Info().Msg("shutdown signal received")
	}

	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(ctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server stopped")
}
