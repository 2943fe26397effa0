package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/repository"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PostgresRepository struct {
	Post repository.Post
	User repository.User
}

func New(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		Post: newPostRepo(db, logger),
		User: newUserRepo(db),
	}
}

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Migrate applies the embedded schema migrations.
func Migrate(cfg config.DBConfig, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	dsn := strings.Replace(cfg.DSN(), "postgres://", "pgx5://", 1)
	migrator, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	switch err := migrator.Up(); {
	case err == nil:
		logger.Info("database was migrated")
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("database is up-to-date")
	default:
		return fmt.Errorf("failed to migrate db: %w", err)
	}

	return nil
}
