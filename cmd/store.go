package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/scorer"
	"github.com/sells-group/reconcile-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "reconcile.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initScorer(st store.Store) (*scorer.Scorer, error) {
	profiles := scorer.DefaultProfiles()
	if cfg.Scorer.ProfilesPath != "" {
		loaded, err := scorer.LoadProfiles(cfg.Scorer.ProfilesPath)
		if err != nil {
			return nil, err
		}
		profiles = loaded
	}

	weights, err := scorer.NewWeightTable(profiles, cfg.Scorer.VectorLen, cfg.Scorer.DefaultPersona)
	if err != nil {
		return nil, err
	}
	return scorer.New(st, cfg.Scorer, weights), nil
}

func loadDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read document %s", path)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "parse document %s", path)
	}
	return &doc, nil
}
