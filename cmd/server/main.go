package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/api"
	"github.com/quantrey/stock-data-service/internal/backup"
	"github.com/quantrey/stock-data-service/internal/cache"
	"github.com/quantrey/stock-data-service/internal/config"
	"github.com/quantrey/stock-data-service/internal/database"
	"github.com/quantrey/stock-data-service/internal/ingest"
	"github.com/quantrey/stock-data-service/internal/kafka"
	"github.com/quantrey/stock-data-service/internal/provider"
	"github.com/quantrey/stock-data-service/internal/strategy"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Create the stock database if it is missing, then migrate
	if err := database.EnsureDatabase(cfg.Database.ServerDSN(), cfg.Database.DBName); err != nil {
		return err
	}

	db, err := database.New(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "db/migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("name", cfg.Database.DBName))

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	barCache := cache.NewDailyBarCache(rdb, cfg.Redis.TTL, db)

	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token)
	ingestService := ingest.NewService(providerClient, db, barCache, logger)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SignalTopic)
	defer producer.Close()

	scanner := strategy.NewScanner(db, producer, logger,
		strategy.NewRSIStrategy(db, 0, 0),
		strategy.NewMomentumStrategy(db, 0, 0),
		strategy.NewCSI300RSStrategy(db, 0),
	)

	backupRunner := backup.NewRunner(cfg.Database, cfg.Backup, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bar events from upstream collectors
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BarTopic, cfg.Kafka.GroupID, db, logger)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("kafka consumer stopped", zap.Error(err))
		}
	}()

	// Scheduled mysqldump backups
	go backupRunner.Schedule(ctx)

	handler := api.NewHandler(db, barCache, ingestService, scanner, backupRunner, logger)
	router := api.SetupRoutes(handler)
	router.Use(api.RequestLogger(logger))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
