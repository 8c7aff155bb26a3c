// Package repotest provides an in-memory TodoRepo for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "todos/internal/domain"

	"github.com/jackc/pgx/v5"
)

// MemTodoRepo mirrors the visibility and merge rules of the Postgres repo.
// Err, when set, is returned from every call.
type MemTodoRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]dom.Todo

	Err     error
	Creates int
	Updates []dom.TodoPatch
}

func NewMemTodoRepo() *MemTodoRepo {
	return &MemTodoRepo{rows: make(map[int64]dom.Todo)}
}

func (m *MemTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	list := make([]dom.Todo, 0, len(m.rows))
	for _, t := range m.rows {
		if t.Status {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *MemTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dom.Todo{}, m.Err
	}
	t, ok := m.rows[id]
	if !ok || !t.Status {
		return dom.Todo{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *MemTodoRepo) Create(ctx context.Context, in dom.NewTodo) (dom.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dom.Todo{}, m.Err
	}
	m.nextID++
	m.Creates++
	now := time.Now().UTC()
	t := dom.Todo{
		ID:          m.nextID,
		Title:       in.Title,
		Description: in.Description,
		Status:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.rows[t.ID] = t
	return t, nil
}

func (m *MemTodoRepo) Update(ctx context.Context, id int64, p dom.TodoPatch) (dom.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dom.Todo{}, m.Err
	}
	m.Updates = append(m.Updates, p)
	t, ok := m.rows[id]
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.SetDescription {
		t.Description = p.Description
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SetFinished {
		t.Finished = p.Finished
	}
	t.UpdatedAt = time.Now().UTC()
	m.rows[id] = t
	return t, nil
}

// Raw returns a row regardless of its status.
func (m *MemTodoRepo) Raw(id int64) (dom.Todo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	return t, ok
}
