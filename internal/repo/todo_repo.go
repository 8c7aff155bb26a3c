package repo

import (
	"context"

	dom "todos/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo is the persistence collaborator of the todo service.
// Reads only see records with status = true; GetByID returns pgx.ErrNoRows
// when nothing visible matches.
type TodoRepo interface {
	List(ctx context.Context) ([]dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	Create(ctx context.Context, t dom.NewTodo) (dom.Todo, error)
	Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

const todoColumns = `id, title, description, is_done, finished, status, created_at, updated_at`

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.IsDone, &t.Finished,
		&t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE status = TRUE ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]dom.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND status = TRUE`
	return scanTodo(r.db.QueryRow(ctx, query, id))
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.NewTodo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (title, description)
		VALUES ($1, $2)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, t.Title, t.Description))
}

// Update merges patch over the row with the given id. It does not filter on
// status; callers check visibility first.
func (r *PGTodoRepo) Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error) {
	query := `
		UPDATE todos SET
			title       = COALESCE($2::text, title),
			description = CASE WHEN $3::boolean THEN $4::text ELSE description END,
			is_done     = COALESCE($5::boolean, is_done),
			status      = COALESCE($6::boolean, status),
			finished    = CASE WHEN $7::boolean THEN $8::timestamptz ELSE finished END,
			updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query,
		id, patch.Title, patch.SetDescription, patch.Description,
		patch.IsDone, patch.Status, patch.SetFinished, patch.Finished,
	))
}
