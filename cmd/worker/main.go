package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/contract"
	"github.com/pixshare/imageserve/internal/domain"
	"github.com/pixshare/imageserve/internal/helpers"
	"github.com/pixshare/imageserve/internal/infrastructure/cache"
	infradatabase "github.com/pixshare/imageserve/internal/infrastructure/database"
	"github.com/pixshare/imageserve/internal/infrastructure/kafka"
	"github.com/pixshare/imageserve/internal/infrastructure/processor"
	"github.com/pixshare/imageserve/internal/infrastructure/storage"
	"github.com/pixshare/imageserve/internal/metrics"
	"github.com/pixshare/imageserve/internal/policy"
	"github.com/pixshare/imageserve/internal/repository/postgres"
	"github.com/pixshare/imageserve/internal/retry"
	"github.com/pixshare/imageserve/internal/usecase"
	"github.com/pixshare/imageserve/internal/worker"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Serve Warm Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	connectRetries := cfg.Database.ConnectRetries
	connectDelay := cfg.Database.ConnectRetryDelaySec
	if connectRetries == 0 {
		connectRetries = 15
	}
	if connectDelay == 0 {
		connectDelay = 3
	}

	masterDSN := cfg.Database.DSN
	slaves := []string{}
	if strings.TrimSpace(cfg.Database.Slaves) != "" {
		slaves = helpers.SplitAndTrim(cfg.Database.Slaves, ",")
	}
	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	}

	database, err := infradatabase.ConnectWithRetries(masterDSN, slaves, dbOpts, connectRetries, connectDelay)
	if err != nil || database == nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}

	// Run migrations. The API applies them too, so an already-applied
	// set here is not fatal.
	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Migrations warning (might be already applied)")
	}

	// Setup Storage
	originals, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// Artifact cache
	artifactCache, err := cache.NewRedis(&cfg.Cache)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to connect to artifact cache")
	}

	// Preset registry + parser
	registry, err := contract.NewRegistry(contract.DefaultPresets())
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Preset registry rejected the preset table")
	}
	parser := contract.NewParser(registry)

	blurRules := policy.BlurRules{
		PublicExplicitFloor: domain.BlurMode(cfg.Transform.PublicExplicitFloor),
	}

	// Repository + Usecases
	repo := postgres.NewMetadataRepository(database, retry.DefaultStrategy)
	renderer := processor.NewImageRenderer(&cfg.Transform)
	transformUsecase := usecase.NewTransformUsecase(
		parser,
		blurRules,
		repo,
		originals,
		artifactCache,
		renderer,
		metrics.NewZlogSink(),
		retry.DefaultStrategy,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Transform.BrandWatermarkText,
	)
	warmUsecase := usecase.NewWarmUsecase(transformUsecase, cfg.Transform.WarmPresets)
	warmWorker := worker.NewWarmWorker(warmUsecase)

	// Kafka Consumer
	kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, warmWorker.HandleWarmTask)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer kafkaConsumer.Close()

	go func() {
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	if database != nil && database.Master != nil {
		database.Master.Close()
		for _, s := range database.Slaves {
			if s != nil {
				s.Close()
			}
		}
	}

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
