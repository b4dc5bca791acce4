package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	redisadapter "github.com/savecircle/savecircle-backend/internal/adapters/cache/redis"
	kafkaadapter "github.com/savecircle/savecircle-backend/internal/adapters/events/kafka"
	"github.com/savecircle/savecircle-backend/internal/adapters/gateway/paystack"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/core/services"
	"github.com/savecircle/savecircle-backend/internal/handlers"
	"github.com/savecircle/savecircle-backend/internal/middleware"
	"github.com/savecircle/savecircle-backend/internal/platform/config"
	"github.com/savecircle/savecircle-backend/internal/platform/metrics"
	"github.com/savecircle/savecircle-backend/internal/repositories/database/pgsql"
	"github.com/savecircle/savecircle-backend/pkg/database"
)

// @title SaveCircle Wallet API
// @version 1.0
// @description Wallet ledger and fund movement service: deposits, contributions, releases, and reviewed withdrawals.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metrics.Register()

	// Optional Redis fast path for the idempotency guard.
	var cache portsrepo.ReferenceCache
	if cfg.RedisAddr != "" {
		redisCache, err := redisadapter.NewReferenceCache(context.Background(), cfg.RedisAddr)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Info("Redis reference cache connected.", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency runs on the database alone.")
	}

	// Optional Kafka publisher for transaction lifecycle events.
	var publisher portssvc.TransactionPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafkaadapter.NewProducer(cfg.KafkaBrokers, cfg.KafkaTransactionTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("Kafka transaction publisher ready.", slog.String("topic", cfg.KafkaTransactionTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, transaction events disabled.")
	}

	gateway, err := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.GatewayTimeout, cfg.GatewayMaxRetries)
	if err != nil {
		logger.Error("Failed to create payment gateway client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	svc := services.NewContainer(&repos, services.ContainerDeps{
		Gateway:   gateway,
		Cache:     cache,
		Publisher: publisher,
		Currency:  cfg.DefaultCurrency,
		FeeRate:   cfg.WithdrawalFeeRate,
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rate := limiter.Rate{Period: time.Minute, Limit: cfg.RateLimitPerMinute}
	rateLimit := middleware.RateLimit(limiter.New(memory.NewStore(), rate))

	handlers.RegisterRoutes(r, cfg, svc, rateLimit)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection over the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
