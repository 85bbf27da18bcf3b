package cli

import (
	"fmt"

	"github.com/lazypower/rhythm/internal/catalogue"
	"github.com/lazypower/rhythm/internal/config"
	"github.com/lazypower/rhythm/internal/curator"
	"github.com/lazypower/rhythm/internal/engine"
	"github.com/lazypower/rhythm/internal/logging"
	"github.com/lazypower/rhythm/internal/rhythm"
	"github.com/lazypower/rhythm/internal/store"
	"go.uber.org/zap"
)

// app is everything a command needs that touches the database.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *store.DB
	engine *engine.Engine
	dbPath string
}

// newApp loads config and wires store, catalogue, curator, reader and
// engine. Callers must Close it.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Dev)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	eng, err := buildEngine(cfg, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db, engine: eng, dbPath: dbPath}, nil
}

func buildEngine(cfg config.Config, db *store.DB, log *zap.Logger) (*engine.Engine, error) {
	var (
		cat *catalogue.Catalogue
		err error
	)
	if cfg.Catalogue.Path != "" {
		cat, err = catalogue.Load(cfg.Catalogue.Path)
	} else {
		cat, err = catalogue.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	cur, err := curator.New(cat,
		curator.WithChance(curator.NewSeededChance(cfg.Engine.RandomSeed), cfg.Engine.GrowthEdgeChance),
		curator.WithLogger(log))
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	reader := rhythm.NewReader(db,
		rhythm.WithWindow(cfg.Window()),
		rhythm.WithLocation(loc),
		rhythm.WithLogger(log))

	return engine.New(db, reader, cur, engine.Options{
		StoreTimeout: cfg.Engine.StoreTimeout,
		ProfileTTL:   cfg.Engine.ProfileTTL,
		Logger:       log,
	}), nil
}

func (a *app) Close() {
	a.log.Sync()
	a.db.Close()
}
