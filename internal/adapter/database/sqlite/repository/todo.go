package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"simpletodo/internal/adapter/database/sqlite"
	"simpletodo/internal/core/domain"
	"simpletodo/internal/core/port"
	tel "simpletodo/internal/core/telemetry"
)

const todosTable = "todos"

var todoColumns = []string{"id", "content", "is_completed"}

type TodoRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row rowScanner) (domain.Todo, error) {
	var todo domain.Todo

	err := row.Scan(&todo.ID, &todo.Content, &todo.IsCompleted)

	return todo, err
}

func (tr *TodoRepository) GetAll(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "GetAll", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todosTable,
		"db.operation": "SELECT",
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	op.Query(query, args)

	rows, err := tr.db.Querier(ctx).QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	todos = []domain.Todo{}

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, err
		}

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	op.Span().SetAttributes(map[string]interface{}{
		"db.rows_returned": len(todos),
	})

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "GetByID", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todosTable,
		"db.operation": "SELECT",
		"todo.id":      id,
	})
	defer func() { op.End(err) }()

	return tr.getByID(ctx, op, id)
}

func (tr *TodoRepository) getByID(ctx context.Context, op *tel.Operation, id int) (domain.Todo, error) {
	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	todo, err := scanTodo(tr.db.Querier(ctx).QueryRowContext(ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	if err != nil {
		return domain.Todo{}, err
	}

	return todo, nil
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "Create", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todosTable,
		"db.operation": "INSERT",
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Insert(todosTable).
		Columns("content", "is_completed").
		Values(todo.Content, todo.IsCompleted).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	result, err := tr.db.Querier(ctx).ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Span().SetAttributes(map[string]interface{}{"todo.id": id})

	return tr.getByID(ctx, op, int(id))
}

func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (updated domain.Todo, err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "Update", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todosTable,
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Update(todosTable).
		SetMap(todo.ToMap()).
		Where(sq.Eq{"id": todo.ID}).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	op.Query(query, args)

	result, err := tr.db.Querier(ctx).ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("update todo: %w", err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return domain.Todo{}, err
	}

	if affected == 0 {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	return tr.getByID(ctx, op, todo.ID)
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, op := tel.StartOperation(ctx, tr.telemetry, "DeleteByID", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todosTable,
		"db.operation": "DELETE",
		"todo.id":      id,
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Delete(todosTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	op.Query(query, args)

	result, err := tr.db.Querier(ctx).ExecContext(ctx, query, args...)

	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrTodoNotFound
	}

	return nil
}
