package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/round-archiver/consumer"
	"github.com/radieske/roulette-table-poc/internal/round-archiver/repo"
	"github.com/radieske/roulette-table-poc/internal/shared/config"
	"github.com/radieske/roulette-table-poc/internal/shared/db"
	"github.com/radieske/roulette-table-poc/internal/shared/kafka"
	"github.com/radieske/roulette-table-poc/internal/shared/logger"
	"github.com/radieske/roulette-table-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if cfg.PostgresDSN == "" || cfg.KafkaBrokers == "" {
		log.Fatal("round-archiver requires POSTGRES_DSN and KAFKA_BROKERS")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}

	// consumer group round-archiver
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, cfg.ArchiverGroupID)
	defer reader.Close()

	proc := &consumer.Processor{
		Log:    log,
		Reader: reader,
		Repo:   store,
	}
	if cfg.TopicRoundSettledDLQ != "" {
		dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettledDLQ)
		defer dlq.Close()
		proc.DLQ = dlq
	}

	// Métricas Prometheus para monitoramento do arquivamento
	promReg := prometheus.NewRegistry()
	m := metrics.NewArchiver(promReg)
	proc.OnConsumed = m.Consumed.Inc
	proc.OnPersist = m.Persist.Inc
	proc.OnError = func(stage string) { m.ErrorsBy.WithLabelValues(stage).Inc() }

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, promReg, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"kafka":    func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) },
	})
	defer metricsSrv.Close()
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("round-archiver started",
		zap.String("consume", cfg.TopicRoundSettled),
		zap.String("dlq", cfg.TopicRoundSettledDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("round-archiver stopped")
}
