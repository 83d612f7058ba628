package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"simpletodo/pkg/config"
	ct "simpletodo/pkg/context"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*pgxpool.Pool
	QueryBuilder *squirrel.StatementBuilderType
	url          string
}

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	dbURL, err := connectionURL(cfg)

	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.PoolSize)
	poolConfig.MaxConnLifetime = cfg.PoolRecycle

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	db := &DB{
		Pool:         pool,
		QueryBuilder: &psql,
		url:          dbURL,
	}

	if err := RunMigrations(dbURL); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// connectionURL appends sslmode to the configured URL when one is set.
func connectionURL(cfg config.DatabaseConfig) (string, error) {
	if cfg.SSLMode == "" {
		return cfg.URL, nil
	}

	parsed, err := url.Parse(cfg.URL)

	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	query := parsed.Query()
	query.Set("sslmode", cfg.SSLMode)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// Querier returns the transaction of the session carried by ctx, or the
// pool when the context has no postgres session.
func (db *DB) Querier(ctx context.Context) Querier {
	if session, ok := ct.SessionFromContext(ctx); ok {
		if s, ok := session.(*Session); ok && s.tx != nil {
			return s.tx
		}
	}

	return db.Pool
}

func RunMigrations(dbURL string) error {
	sqlDB, err := sql.Open("pgx", dbURL)

	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})

	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)

	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create migration instance: %w", err)
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
