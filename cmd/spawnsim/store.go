package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/config"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/db"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger/filestore"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger/sqlitestore"
)

// openStore opens the configured trigger-state backend. The returned close
// function is never nil.
func openStore(ctx context.Context, cfg config.StateConfig) (trigger.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendFile:
		slog.Info("trigger state in files", "dir", cfg.Dir)
		return filestore.New(cfg.Dir), func() {}, nil

	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("trigger state in sqlite", "path", cfg.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("closing sqlite store", "err", err)
			}
		}, nil

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		database, err := db.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, dsn); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return database.Triggers(), database.Close, nil

	case config.BackendMemory:
		slog.Warn("trigger state is not persisted")
		return trigger.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
}
