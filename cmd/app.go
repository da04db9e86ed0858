package cmd

import (
	"context"
	"fmt"
	"os"

	"SECUREATTEND/config"
	"SECUREATTEND/guard"
	"SECUREATTEND/identity"
	"SECUREATTEND/ledger"
	"SECUREATTEND/logging"
	"SECUREATTEND/matcher"
	"SECUREATTEND/models"
	"SECUREATTEND/pipeline"
	"SECUREATTEND/provider"
	"SECUREATTEND/roster"
	"SECUREATTEND/service"
	"SECUREATTEND/storage"
)

// app is the fully wired service shared by every command.
type app struct {
	cfg   *config.Config
	log   logging.Logger
	svc   *service.Service
	close func() error
}

func openBackend(cfg *config.Config) (storage.Backend, func() error, error) {
	if cfg.Storage.DatabaseURL == "" {
		fb, err := storage.NewFileBackend(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fb, func() error { return nil }, nil
	}

	db, err := models.ConnectDatabase(cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	return storage.NewGormBackend(db), sqlDB.Close, nil
}

func newMatcher(cfg config.MatchingConfig) matcher.Matcher {
	if cfg.Matcher == "hnsw" {
		return matcher.NewIndex(cfg.HNSWCandidates, cfg.HNSWMinSize)
	}
	return matcher.Linear{}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(os.Stderr, cfg.LogLevel)

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	ids := identity.NewStore(backend, identity.WithDimension(cfg.Embedding.Dimension))
	led := ledger.New(backend, ledger.WithDedupWindow(cfg.Attendance.DedupWindow))
	ctl := guard.New(ids, led, cfg.Storage.LockTimeout, guard.WithRoster(roster.New(backend)))
	if err := ctl.Load(ctx); err != nil {
		_ = closeBackend()
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	p := pipeline.New(
		provider.NewHTTPClient(cfg.Embedding.URL, cfg.Embedding.Timeout),
		newMatcher(cfg.Matching),
		cfg.Matching.Threshold,
	)
	svc := service.New(ctl, p, log, service.WithLocation(cfg.Attendance.Location))

	return &app{cfg: cfg, log: log, svc: svc, close: closeBackend}, nil
}
