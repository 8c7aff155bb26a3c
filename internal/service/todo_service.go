package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todos/internal/cache"
	dom "todos/internal/domain"
	"todos/internal/repo"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("record not found")

// UpdateTodo carries the optional fields of an update. A nil IsDone leaves
// the completion timestamp as stored. ClearDescription removes the
// description and wins over Description.
type UpdateTodo struct {
	Title            *string
	Description      *string
	ClearDescription bool
	IsDone           *bool
}

type TodoService struct {
	repo   repo.TodoRepo
	cache  *cache.TodoCache
	sf     singleflight.Group
	now    func() time.Time
	logger *log.Logger
}

type Option func(*TodoService)

// WithClock overrides the source of completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *TodoService) { s.logger = l }
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, opts ...Option) *TodoService {
	s := &TodoService{
		repo:   r,
		cache:  c,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every visible todo.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	// the fill is shared by every waiter, so it must not die with the
	// first caller's request
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		list, err := s.cache.GetList(fillCtx)
		if err != nil {
			s.logger.WithError(err).Warn("todo cache read failed")
		} else if list != nil {
			return list, nil
		}
		gen, genErr := s.cache.Generation(fillCtx)
		if genErr != nil {
			s.logger.WithError(genErr).Warn("todo cache generation read failed")
		}
		list, err = s.repo.List(fillCtx)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			if _, err := s.cache.SetList(fillCtx, gen, list); err != nil {
				s.logger.WithError(err).Warn("todo cache write failed")
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

// Get returns the visible todo with the given id or ErrNotFound.
func (s *TodoService) Get(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	return t, nil
}

// Create inserts a todo. Input is expected to be validated already.
func (s *TodoService) Create(ctx context.Context, title string, desc *string) error {
	if _, err := s.repo.Create(ctx, dom.NewTodo{Title: title, Description: desc}); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// Update merges the provided fields over the stored todo. Finished follows
// an explicit IsDone and is otherwise written back unchanged.
func (s *TodoService) Update(ctx context.Context, id int64, in UpdateTodo) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	finished := existing.Finished
	if in.IsDone != nil {
		if *in.IsDone {
			now := s.now()
			finished = &now
		} else {
			finished = nil
		}
	}

	patch := dom.TodoPatch{
		Title:       in.Title,
		IsDone:      in.IsDone,
		SetFinished: true,
		Finished:    finished,
	}
	switch {
	case in.ClearDescription:
		patch.SetDescription = true
	case in.Description != nil:
		patch.SetDescription = true
		patch.Description = in.Description
	}

	_, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	s.invalidateCache(ctx)
	return nil
}

// Remove soft-deletes a visible todo.
func (s *TodoService) Remove(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	hidden := false
	if _, err := s.repo.Update(ctx, id, dom.TodoPatch{Status: &hidden}); err != nil {
		return fmt.Errorf("remove todo %d: %w", id, err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("todo cache invalidate failed")
	}
}
