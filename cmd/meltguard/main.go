package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/metallisense/meltguard/internal/anomaly"
	"github.com/metallisense/meltguard/internal/audit"
	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/config"
	"github.com/metallisense/meltguard/internal/correction"
	"github.com/metallisense/meltguard/internal/grades"
	"github.com/metallisense/meltguard/internal/logging"
	"github.com/metallisense/meltguard/internal/model"
	"github.com/metallisense/meltguard/internal/pipeline"
	"github.com/metallisense/meltguard/internal/server"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "meltguard.yaml", "Path to MeltGuard config file")
	fakeModels := flag.Bool("fake-models", false, "Use deterministic fake models (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *fakeModels {
		cfg.Models.Fake = true
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	registry, err := loadRegistry(cfg)
	if err != nil {
		logger.Fatal("failed to load grade registry", zap.Error(err))
	}

	scorer, regressor, err := loadModels(cfg, registry)
	if err != nil {
		logger.Fatal("failed to load models", zap.Error(err))
	}

	emitter, err := buildAudit(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build audit emitter", zap.Error(err))
	}
	defer emitter.Close(context.Background())

	evaluator := anomaly.New(scorer,
		anomaly.WithThresholds(cfg.Anomaly.MediumThreshold, cfg.Anomaly.HighThreshold))
	recommender := correction.New(regressor, registry, correction.Limits{
		MaxAddition:       cfg.Alloy.MaxAddition,
		SignificanceFloor: cfg.Alloy.SignificanceFloor,
		MinConfidence:     cfg.Alloy.MinConfidence,
		LargeTotal:        cfg.Alloy.LargeTotal,
	})
	orchestrator := pipeline.New(registry, evaluator, recommender, emitter, logger)

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	srv := server.New(orchestrator, registry, scorer, regressor, logger)
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadRegistry(cfg *config.Config) (*grades.Registry, error) {
	if cfg.Grades.SpecsPath != "" {
		return grades.LoadFile(cfg.Grades.SpecsPath)
	}
	return grades.NewBuiltin(), nil
}

func loadModels(cfg *config.Config, registry *grades.Registry) (model.Scorer, model.Regressor, error) {
	if cfg.Models.Fake {
		center := composition.Composition{Fe: 88.5, C: 3.15, Si: 1.75, Mn: 0.8, P: 0.085, S: 0.07}
		return model.NewFakeScorer(center), model.NewFakeRegressor(registry.Grades(), make([]float64, len(composition.Elements))), nil
	}

	scorer, err := model.LoadScoringModel(cfg.Models.AnomalyBundle)
	if err != nil {
		return nil, nil, err
	}
	regressor, err := model.LoadRegressionModel(cfg.Models.AlloyBundle)
	if err != nil {
		return nil, nil, err
	}
	return scorer, regressor, nil
}

func buildAudit(cfg *config.Config, logger *zap.Logger) (*audit.Emitter, error) {
	var sinks []audit.Sink
	if cfg.Audit.FilePath != "" {
		sink, err := audit.NewFileSink(cfg.Audit.FilePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Audit.SQLitePath != "" {
		sink, err := audit.NewSQLiteSink(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return audit.NewEmitter(audit.EmitterConfig{
		QueueSize: cfg.Audit.QueueSize,
		Workers:   cfg.Audit.Workers,
	}, sinks, logger), nil
}
