// Package tasks orders a conversation's open tasks and applies additions and
// completions against a Store.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chris/nudge/internal/model"
)

// ErrNotFound is returned when a display number does not resolve to an open
// task, including when the task was completed in the meantime.
var ErrNotFound = errors.New("task not found")

// Store is the persistence the service needs. internal/db and internal/pgdb implement it.
type Store interface {
	InsertTask(ctx context.Context, conversationID string, section model.Section, body string, createdAt time.Time) (int64, error)
	ListOpenTasks(ctx context.Context, conversationID string) ([]model.Task, error)
	ListDoneInRange(ctx context.Context, conversationID string, start, end time.Time) ([]model.Task, error)
	MarkDone(ctx context.Context, conversationID string, id int64, doneAt time.Time) (bool, error)
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

type Service struct {
	store Store
	loc   *time.Location
	clock func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, loc *time.Location, opts ...Option) *Service {
	s := &Service{
		store: store,
		loc:   loc,
		clock: time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the current time in the configured zone.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Add stores a new open task.
func (s *Service) Add(ctx context.Context, conversationID string, section model.Section, body string) (int64, error) {
	id, err := s.store.InsertTask(ctx, conversationID, section, body, s.Now())
	if err != nil {
		return 0, fmt.Errorf("adding task: %w", err)
	}
	return id, nil
}

// Open returns the conversation's open tasks, ordered and numbered.
func (s *Service) Open(ctx context.Context, conversationID string) ([]Entry, error) {
	open, err := s.store.ListOpenTasks(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for i := range open {
		s.localize(&open[i])
	}
	return Order(open, s.Now()), nil
}

// Resolve maps a display number to the task currently shown under it.
func (s *Service) Resolve(ctx context.Context, conversationID string, n int) (Entry, error) {
	entries, err := s.Open(ctx, conversationID)
	if err != nil {
		return Entry{}, err
	}
	e, ok := Lookup(entries, n)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Complete marks the task at display number n as done and returns it.
// Resolution and update run under the conversation's lock, and the update
// itself only touches a still-open row.
func (s *Service) Complete(ctx context.Context, conversationID string, n int) (model.Task, error) {
	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	e, err := s.Resolve(ctx, conversationID, n)
	if err != nil {
		return model.Task{}, err
	}
	now := s.Now()
	ok, err := s.store.MarkDone(ctx, conversationID, e.Task.ID, now)
	if err != nil {
		return model.Task{}, err
	}
	if !ok {
		return model.Task{}, ErrNotFound
	}
	t := e.Task
	t.Done = true
	t.DoneAt = &now
	return t, nil
}

// DoneInRange returns tasks completed in [start, end), oldest completion first.
func (s *Service) DoneInRange(ctx context.Context, conversationID string, start, end time.Time) ([]model.Task, error) {
	done, err := s.store.ListDoneInRange(ctx, conversationID, start, end)
	if err != nil {
		return nil, err
	}
	for i := range done {
		s.localize(&done[i])
	}
	return done, nil
}

func (s *Service) localize(t *model.Task) {
	t.CreatedAt = t.CreatedAt.In(s.loc)
	if t.DoneAt != nil {
		at := t.DoneAt.In(s.loc)
		t.DoneAt = &at
	}
}

func (s *Service) conversationLock(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	return l
}
