package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/squirrel"

	_ "github.com/mattn/go-sqlite3"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/rs/zerolog"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"

	"simpletodo/pkg/config"
	ct "simpletodo/pkg/context"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

// Querier is the subset of *sql.DB and *sql.Tx the repositories need.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DSN builds the go-sqlite3 connection string for a database file.
// Transactions start with BEGIN IMMEDIATE so concurrent writers queue on the
// busy timeout instead of failing a lock upgrade.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate", path)
}

func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	dsn := DSN(cfg.Path)

	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	sqlDB, err := open(dsn, cfg.Echo)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.PoolSize)
	sqlDB.SetMaxIdleConns(cfg.PoolSize)
	sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return Wrap(sqlDB), nil
}

// open returns a traced handle. With echo set, the traced driver is moved
// behind a query logging handle and the first handle is closed.
func open(dsn string, echo bool) (*sql.DB, error) {
	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todos"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil || !echo {
		return sqlDB, err
	}

	driver := sqlDB.Driver()

	if err := sqlDB.Close(); err != nil {
		return nil, err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	return sqldblogger.OpenDriver(dsn, driver, zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	), nil
}

// Wrap builds a DB around an already opened handle.
func Wrap(sqlDB *sql.DB) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
	}
}

// Querier returns the transaction of the session carried by ctx, or the
// pool when the context has no sqlite session.
func (db *DB) Querier(ctx context.Context) Querier {
	if session, ok := ct.SessionFromContext(ctx); ok {
		if s, ok := session.(*Session); ok && s.tx != nil {
			return s.tx
		}
	}

	return db.DB
}

// RunMigrations applies the embedded migrations on a dedicated connection.
func RunMigrations(dsn string) error {
	migrationDB, err := sql.Open("sqlite3", dsn)

	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := sqlite3.WithInstance(migrationDB, &sqlite3.Config{})

	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("create migration instance: %w", err)
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
