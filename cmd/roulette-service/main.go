package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dispatcher"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/events"
	httpapi "github.com/radieske/roulette-table-poc/internal/roulette-service/http"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/producer"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/pubsub"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/ws"
	"github.com/radieske/roulette-table-poc/internal/shared/cache"
	"github.com/radieske/roulette-table-poc/internal/shared/config"
	"github.com/radieske/roulette-table-poc/internal/shared/kafka"
	"github.com/radieske/roulette-table-poc/internal/shared/logger"
	"github.com/radieske/roulette-table-poc/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service",
		zap.String("table_id", cfg.TableID),
		zap.Int64("starting_bankroll", cfg.StartingBankroll),
		zap.Int64s("chips", cfg.ChipDenominations),
		zap.Bool("legacy_auto_session", cfg.LegacyAutoSession),
	)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewRoulette(promReg)
	checks := map[string]metrics.HealthFunc{}

	// sinks opcionais: endereço vazio desliga
	var sinks []events.Sink

	var board *pubsub.RedisBoard
	if cfg.RedisAddr != "" {
		redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		board = pubsub.NewRedisBoard(redisClient, cfg.RedisResultsChannel, cfg.ResultsBoardSize, log)
		sinks = append(sinks, board)
		checks["redis"] = board.Ping
		log.Info("redis connected", zap.String("channel", cfg.RedisResultsChannel))
	}

	if cfg.KafkaBrokers != "" {
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
		defer writer.Close()
		sinks = append(sinks, producer.NewKafkaPublisher(writer, cfg.TopicRoundSettled))
		checks["kafka"] = func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) }
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicRoundSettled))
	}

	publisher := events.NewPublisher(log, cfg.EventBuffer, sinks...)
	publisher.OnDrop = m.EventsDropped.Inc
	publisher.OnSinkError = func(sink string) { m.SinkErrors.WithLabelValues(sink).Inc() }

	// registro de sessões + varredura de inatividade
	reg := roulette.NewRegistry(roulette.Table{
		StartingBankroll: cfg.StartingBankroll,
		Chips:            cfg.ChipDenominations,
		HistoryCapacity:  cfg.HistoryCapacity,
	}, roulette.WithLogger(log))
	reg.OnEvict = func(string) {
		m.SessionsEvicted.Inc()
		m.SessionsActive.Set(float64(reg.Len()))
	}

	d := dispatcher.New(log, reg, dispatcher.Options{
		TableID:           cfg.TableID,
		LegacyAutoSession: cfg.LegacyAutoSession,
		Metrics:           m,
		Events:            publisher,
	})
	hub := ws.NewHub(log, d, ws.AllowOrigins(cfg.AllowedOrigins))

	api := &httpapi.API{Log: log, Dispatcher: d, Hub: hub}
	if board != nil {
		api.Board = board
		// resultados de outras instâncias chegam pelo Pub/Sub
		board.Subscribe(ctx, func(u pubsub.ResultUpdate) {
			hub.Broadcast(u.TableID, dto.OK("table-result", u))
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		publisher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		reg.RunSweeper(ctx, cfg.SweepInterval, cfg.IdleTimeout)
	}()

	// sobe servidor de métricas e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, promReg, checks)
	log.Info("metrics/health server starting", zap.String("addr", metricsSrv.Addr))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// conexões WebSocket sequestradas não entram no Shutdown; o processo encerra com elas
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	publisher.Close()
	wg.Wait()
	log.Info("roulette-service stopped", zap.Int("sessions", reg.Len()))
}
