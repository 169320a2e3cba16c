package postgres

import (
	"context"
	"fmt"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPoolConfig разбирает DATABASE_URL и применяет настройки пула из конфигурации.
// Нулевые значения оставляют то, что задано в строке подключения или по умолчанию в pgxpool.
func NewPoolConfig(appCfg *config.Config) (*pgxpool.Config, error) {
	cfgPool, err := pgxpool.ParseConfig(appCfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: could not parse database url: %w", err)
	}

	if appCfg.DBMaxConns > 0 {
		cfgPool.MaxConns = int32(appCfg.DBMaxConns)
	}
	if appCfg.DBMinConns > 0 {
		cfgPool.MinConns = int32(appCfg.DBMinConns)
	}
	if appCfg.DBMaxConnLifetime > 0 {
		cfgPool.MaxConnLifetime = appCfg.DBMaxConnLifetime
	}
	if appCfg.DBMaxConnIdleTime > 0 {
		cfgPool.MaxConnIdleTime = appCfg.DBMaxConnIdleTime
	}
	if cfgPool.MinConns > cfgPool.MaxConns {
		return nil, fmt.Errorf("postgres: min conns %d exceed max conns %d", cfgPool.MinConns, cfgPool.MaxConns)
	}
	return cfgPool, nil
}

// NewPostgresDB создает пул соединений и проверяет его ping-ом
func NewPostgresDB(ctx context.Context, appCfg *config.Config) (*pgxpool.Pool, error) {
	cfgPool, err := NewPoolConfig(appCfg)
	if err != nil {
		return nil, err
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, cfgPool)
	if err != nil {
		return nil, fmt.Errorf("postgres: could not create pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("postgres: could not ping: %w", err)
	}

	return dbpool, nil
}
