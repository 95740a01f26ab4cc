// Command ledger-report prints a performance report and a staking strategy
// comparison for a persisted ledger as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/ledger"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/performance"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
)

type output struct {
	Bankroll   models.BankrollSnapshot    `json:"bankroll"`
	Report     models.PerformanceReport   `json:"report"`
	Strategies *models.StrategyComparison `json:"strategies"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	market := flag.String("market", "", "only include bets on this market")
	strategy := flag.String("strategy", "", "only include bets placed with this strategy")
	since := flag.Duration("since", 0, "only include bets created within this window")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	// Keep stdout clean for the JSON document
	cfg.Log.Level = "warn"
	cfg.Log.File = ""
	log, err := logger.Init(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise logger")
	}
	log.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store ledger.Store = ledger.NewFileStore(cfg.Ledger.Path)
	if cfg.Ledger.Backend == "postgres" {
		pg, err := ledger.OpenPostgres(ctx, cfg.Ledger.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("failed to open postgres ledger")
		}
		defer pg.Close()
		store = pg
	}

	bets, err := ledger.New(ctx, cfg.Bankroll.InitialBankroll, store)
	if err != nil {
		log.WithError(err).Fatal("failed to load ledger")
	}

	preds := []performance.Predicate{performance.All()}
	if *market != "" {
		preds = append(preds, performance.ByMarket(*market))
	}
	if *strategy != "" {
		preds = append(preds, performance.ByStrategy(models.StakingStrategy(*strategy)))
	}
	if *since > 0 {
		preds = append(preds, performance.Between(time.Now().UTC().Add(-*since), time.Time{}))
	}

	analyzer := performance.NewAnalyzer(bets, cfg.Performance.VarianceTolerance)

	stakingEngine, err := staking.NewEngine(bets, cfg.Bankroll, cfg.Slips)
	if err != nil {
		log.WithError(err).Fatal("failed to create staking engine")
	}
	comparison, err := stakingEngine.CompareStrategies()
	if err != nil {
		log.WithError(err).Fatal("failed to compare strategies")
	}

	out := output{
		Bankroll:   bets.Snapshot(time.Now().UTC()),
		Report:     analyzer.Report(performance.And(preds...)),
		Strategies: comparison,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.WithError(err).Fatal("failed to write report")
	}
}
