package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"simpletodo/internal/adapter/database/postgres"
	"simpletodo/internal/core/domain"
	"simpletodo/internal/core/port"
	tel "simpletodo/internal/core/telemetry"
)

const (
	todosTable = "todos"
	returning  = "RETURNING id, content, is_completed"
)

var todoColumns = []string{"id", "content", "is_completed"}

type TodoRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{db: db, telemetry: telemetry}
}

func scanTodo(row pgx.Row) (domain.Todo, error) {
	var todo domain.Todo

	err := row.Scan(&todo.ID, &todo.Content, &todo.IsCompleted)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	return todo, err
}

func (tr *TodoRepository) attrs(operation string, extra map[string]interface{}) map[string]interface{} {
	attrs := map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todosTable,
		"db.operation": operation,
	}

	for k, v := range extra {
		attrs[k] = v
	}

	return attrs
}

func (tr *TodoRepository) GetAll(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "GetAll", "todo", tr.attrs("SELECT", nil))
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	op.Query(query, args)

	rows, err := tr.db.Querier(ctx).Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	todos, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Todo, error) {
		return scanTodo(row)
	})

	if err != nil {
		return nil, err
	}

	op.Span().SetAttributes(map[string]interface{}{
		"db.rows_returned": len(todos),
	})

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "GetByID", "todo", tr.attrs("SELECT", map[string]interface{}{"todo.id": id}))
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	return scanTodo(tr.db.Querier(ctx).QueryRow(ctx, query, args...))
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "Create", "todo", tr.attrs("INSERT", nil))
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Insert(todosTable).
		Columns("content", "is_completed").
		Values(todo.Content, todo.IsCompleted).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	saved, err = scanTodo(tr.db.Querier(ctx).QueryRow(ctx, query, args...))

	if err != nil {
		return domain.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	return saved, nil
}

func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (updated domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "Update", "todo", tr.attrs("UPDATE", map[string]interface{}{"todo.id": todo.ID}))
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Update(todosTable).
		SetMap(todo.ToMap()).
		Where(sq.Eq{"id": todo.ID}).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	return scanTodo(tr.db.Querier(ctx).QueryRow(ctx, query, args...))
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "DeleteByID", "todo", tr.attrs("DELETE", map[string]interface{}{"todo.id": id}))
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Delete(todosTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	op.Query(query, args)

	tag, err := tr.db.Querier(ctx).Exec(ctx, query, args...)

	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}

	return nil
}
