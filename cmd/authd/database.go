package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/store/sqlstore"
)

func openDatabase(ctx context.Context, cfg config.StorageConfig) (*sql.DB, func(), error) {
	switch cfg.Credentials {
	case config.BackendPostgres:
		pool := sqlstore.DefaultPoolConfig()
		if cfg.MaxConns > 0 {
			pool.MaxConns = cfg.MaxConns
		}
		return sqlstore.OpenPostgres(ctx, cfg.DatabaseURL, pool)
	case config.BackendSQLite:
		db, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("no database for credentials backend %q", cfg.Credentials)
	}
}
