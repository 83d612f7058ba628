package http

import (
	"context"
	"fmt"

	"simpletodo/internal/adapter/database/postgres"
	pgrepository "simpletodo/internal/adapter/database/postgres/repository"
	"simpletodo/internal/adapter/database/sqlite"
	repository "simpletodo/internal/adapter/database/sqlite/repository"
	"simpletodo/internal/adapter/http/handler"
	"simpletodo/internal/adapter/http/validation"
	"simpletodo/internal/core/port"
	"simpletodo/internal/core/service"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

type Container struct {
	TodoRepo        port.TodoRepository
	TodoService     port.TodoService
	TodoHandler     *handler.TodoHandler
	SessionProvider port.SessionProvider

	closeDB func()
}

// NewContainer opens the configured database and wires the todo stack on
// top of it.
func NewContainer(ctx context.Context, cfg *config.AppConfig, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *config.LokiLogger) (*Container, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)

		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		container := newContainer(pgrepository.NewTodoRepository(db, probe), postgres.NewSessionProvider(db), probe, metrics, logger)
		container.closeDB = db.Close

		return container, nil
	default:
		db, err := sqlite.NewDB(cfg.Database)

		if err != nil {
			return nil, fmt.Errorf("connect sqlite: %w", err)
		}

		container := NewSQLiteContainer(db, probe, metrics, logger)
		container.closeDB = func() { db.Close() }

		return container, nil
	}
}

// NewSQLiteContainer wires the todo stack on an already opened sqlite
// database. The caller keeps ownership of db.
func NewSQLiteContainer(db *sqlite.DB, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *config.LokiLogger) *Container {
	return newContainer(repository.NewTodoRepository(db, probe), sqlite.NewSessionProvider(db), probe, metrics, logger)
}

func newContainer(todoRepo port.TodoRepository, provider port.SessionProvider, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *config.LokiLogger) *Container {
	todoSvc := service.NewTodoService(todoRepo, validation.NewValidator(), probe)

	return &Container{
		TodoRepo:        todoRepo,
		TodoService:     todoSvc,
		TodoHandler:     handler.NewTodoHandler(todoSvc, logger, metrics),
		SessionProvider: provider,
	}
}

func (c *Container) Close() {
	if c.closeDB != nil {
		c.closeDB()
	}
}
