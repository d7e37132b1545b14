package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"routefinder/pkg/config"
	"routefinder/pkg/logger"
)

// Migrator управляет миграциями через goose provider
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
}

// NewMigrator создаёт мигратор поверх пула. migrations - корень с *.sql файлами.
func NewMigrator(pool *pgxpool.Pool, migrations fs.FS) (*Migrator, error) {
	return NewMigratorDB(stdlib.OpenDBFromPool(pool), migrations)
}

// NewMigratorDB создаёт мигратор поверх *sql.DB
func NewMigratorDB(db *sql.DB, migrations fs.FS) (*Migrator, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Migrator{db: db, provider: provider}, nil
}

// Up применяет все миграции
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		logger.Log.Info("Migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration,
		)
	}
	logger.Log.Info("Migrations applied successfully", "count", len(results))
	return nil
}

// Down откатывает последнюю миграцию
func (m *Migrator) Down(ctx context.Context) error {
	if _, err := m.provider.Down(ctx); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	logger.Log.Info("Migration rolled back successfully")
	return nil
}

// MigrationState состояние одной миграции
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Status возвращает статус миграций
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Close закрывает *sql.DB обёртку (пул остаётся открытым)
func (m *Migrator) Close() error {
	return m.db.Close()
}

// RunMigrations запускает миграции если включено в конфигурации
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, cfg *config.DatabaseConfig, migrations fs.FS) error {
	if !cfg.AutoMigrate {
		logger.Log.Info("Auto-migration is disabled")
		return nil
	}

	migrator, err := NewMigrator(pool, migrations)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Up(ctx)
}
