package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/api"
	"github.com/dennisgathu8/house-hedge/internal/broadcast"
	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/feed"
	"github.com/dennisgathu8/house-hedge/internal/ingest"
	"github.com/dennisgathu8/house-hedge/internal/ledger"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/metrics"
	"github.com/dennisgathu8/house-hedge/internal/odds"
	"github.com/dennisgathu8/house-hedge/internal/performance"
	"github.com/dennisgathu8/house-hedge/internal/pipeline"
	"github.com/dennisgathu8/house-hedge/internal/publisher"
	"github.com/dennisgathu8/house-hedge/internal/settlement"
	"github.com/dennisgathu8/house-hedge/internal/sharp"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	reportInterval     = time.Minute
	settlementInterval = 30 * time.Second
	mockMatchLength    = 105 * time.Minute
)

func main() {
	configPath := flag.String("config", getEnv("HH_CONFIG", ""), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if _, err := logger.Init(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("failed to initialise logger")
	}
	log := logger.For("main")
	log.Info("starting house-hedge")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	store, closeStore, err := openStore(ctx, cfg.Ledger)
	if err != nil {
		log.WithError(err).Fatal("failed to open ledger store")
	}
	defer closeStore()

	bets, err := ledger.New(ctx, cfg.Bankroll.InitialBankroll, store, ledger.WithMetrics(m))
	if err != nil {
		log.WithError(err).Fatal("failed to load ledger")
	}

	oddsEngine := odds.NewEngine(cfg.Odds)
	detector := sharp.NewDetector(cfg.Sharp, sharp.WithMetrics(m))
	stakingEngine, err := staking.NewEngine(bets, cfg.Bankroll, cfg.Slips)
	if err != nil {
		log.WithError(err).Fatal("failed to create staking engine")
	}
	analyzer := performance.NewAnalyzer(bets, cfg.Performance.VarianceTolerance)

	hub := broadcast.NewHub()
	go hub.Run(ctx)

	var redisClient *redis.Client
	var pub publisher.Publisher = hub
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		log.WithField("addr", cfg.Redis.URL).Info("connected to redis")

		pub = publisher.Fanout{hub, publisher.NewStreamPublisher(redisClient, cfg.Publisher, m)}
	}

	pipe := pipeline.New(oddsEngine, detector, stakingEngine, bets, pub,
		pipeline.WithAutoPlace(cfg.Slips.AutoPlace))

	queue := ingest.NewQueue(cfg.Ingest, pipe.HandleQuote, ingest.WithMetrics(m))
	queue.Start(ctx)

	settler := settlement.NewSettler(bets, oddsEngine)

	if cfg.Redis.Enabled {
		consumer := feed.NewStreamConsumer(redisClient, cfg.Redis.RawStream, cfg.Redis.ConsumerGroup, cfg.Redis.ConsumerID)
		go func() {
			if err := consumer.Run(ctx, queue); err != nil {
				log.WithError(err).Error("stream consumer stopped")
			}
		}()
	} else {
		startMockFeed(ctx, cfg.Feed, cfg.Odds.Bookmakers, queue, pipe, settler, log)
	}

	go publishReports(ctx, analyzer, pipe, log)

	handler := api.NewHandler(bets, stakingEngine, detector.History(), cfg.Performance.VarianceTolerance,
		func() map[string]interface{} {
			return map[string]interface{}{
				"queue_depth": queue.Len(),
				"ingesting":   queue.Running(),
				"ws_clients":  hub.ClientCount(),
				"bankroll":    bets.CurrentBankroll(),
			}
		}, logger.For("api"))

	router := api.NewRouter(handler, api.Routes{
		Metrics:   m.Handler(),
		WebSocket: broadcast.NewHandler(ctx, hub, cfg.Server.AllowedOrigins),
	}, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")

	dropped := queue.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}

	log.WithFields(logrus.Fields{
		"dropped_quotes": dropped,
		"bets":           len(bets.Bets()),
		"bankroll":       bets.CurrentBankroll(),
	}).Info("shutdown complete")
}

// openStore returns the configured ledger backend and its close func
func openStore(ctx context.Context, cfg config.LedgerConfig) (ledger.Store, func(), error) {
	if cfg.Backend == "postgres" {
		pg, err := ledger.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	}
	return ledger.NewFileStore(cfg.Path), func() {}, nil
}

// startMockFeed runs the seeded generator and settles its matches once they have
// been played
func startMockFeed(ctx context.Context, cfg config.FeedConfig, bookmakers []string, queue *ingest.Queue,
	pipe *pipeline.Pipeline, settler *settlement.Settler, log *logrus.Entry) {
	now := time.Now().UTC()
	gen := feed.NewGenerator(rand.New(rand.NewSource(cfg.Seed)), bookmakers, now)
	matches := gen.Matches(cfg.Matches)

	go func() {
		interval := time.Duration(cfg.IntervalMS) * time.Millisecond
		if err := gen.Run(ctx, matches, cfg.Markets, interval, queue, pipe); err != nil {
			log.WithError(err).Error("mock feed stopped")
		}
	}()

	results := settlement.ResultSourceFunc(func(context.Context) ([]models.MatchResult, error) {
		return gen.Results(matches, time.Now().UTC(), mockMatchLength), nil
	})
	go settler.Start(ctx, results, settlementInterval)

	log.WithFields(logrus.Fields{
		"seed":    cfg.Seed,
		"matches": len(matches),
		"markets": cfg.Markets,
	}).Info("mock feed started")
}

// publishReports pushes a performance report onto the event streams on a timer
func publishReports(ctx context.Context, analyzer *performance.Analyzer, pipe *pipeline.Pipeline, log *logrus.Entry) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pipe.PublishReport(ctx, analyzer.Report(performance.All())); err != nil {
				log.WithError(err).Warn("failed to publish performance report")
			}
		}
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
