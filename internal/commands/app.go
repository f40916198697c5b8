package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/logging"
	"github.com/rentledger/rentledger/internal/model"
	"github.com/rentledger/rentledger/internal/propmatch"
	"github.com/rentledger/rentledger/internal/rules"
	"github.com/rentledger/rentledger/internal/service"
)

// app holds the wired services shared by all subcommands.
type app struct {
	cfg config.Config
	db  *sql.DB
	log *slog.Logger

	transactions *repository.TransactionRepo
	properties   *repository.PropertyRepo
	overrideRepo *repository.OverrideRepo

	reconciler *service.ReconcileService
	overrides  *service.OverrideService
	audit      *service.AuditService
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	a.log = logging.Init(cfg.Logging.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.db = db

	ruleset, err := rules.EnsureFile(cfg.Rules.Path)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	a.transactions = repository.NewTransactionRepo(db)
	a.properties = repository.NewPropertyRepo(db)
	a.overrideRepo = repository.NewOverrideRepo(db)

	a.reconciler = &service.ReconcileService{
		Transactions: a.transactions,
		Properties:   a.properties,
		Overrides:    a.overrideRepo,
		Engine:       rules.NewEngine(ruleset),
		Matcher:      propmatch.NewMatcher(cfg.Matching.Threshold),
		Splits:       propmatch.NewSplitDetector(cfg.Matching.SplitWindowDays, cfg.Matching.SplitToleranceCents()),
		Bands:        model.Bands{AutoAccept: cfg.Review.AutoAccept, HighPriority: cfg.Review.HighPriority},
		Log:          a.log,
	}
	a.overrides = service.NewOverrideService(a.transactions, a.overrideRepo, a.reconciler.AutoResolver())
	a.audit = &service.AuditService{Overrides: a.overrideRepo}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
