// Package scheduler owns the daily digests each conversation receives: two
// open-task reminders and a midnight summary of what was finished the day
// before.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registrar is the scheduled-callback capability: run job at the wall-clock
// times described by a cron spec. Registering an existing name replaces it.
type Registrar interface {
	Register(name, spec string, job func()) error
}

// Registry persists which conversations have their triggers set up.
type Registry interface {
	RegisterConversation(ctx context.Context, conversationID string, at time.Time) (bool, error)
	ListConversations(ctx context.Context) ([]string, error)
}

// Digests renders the messages the triggers send.
type Digests interface {
	Open(ctx context.Context, conversationID string) (string, error)
	Completed(ctx context.Context, conversationID string, start, end time.Time) (string, error)
}

// Deliverer sends a message to a conversation.
type Deliverer interface {
	Send(conversationID, content string) error
}

type Kind int

const (
	OpenReminder Kind = iota
	DailySummary
)

type Trigger struct {
	Name string
	Spec string
	Kind Kind
}

// Triggers are registered for every conversation.
var Triggers = []Trigger{
	{Name: "rem-0900", Spec: "0 9 * * *", Kind: OpenReminder},
	{Name: "rem-1815", Spec: "15 18 * * *", Kind: OpenReminder},
	{Name: "sum-0000", Spec: "0 0 * * *", Kind: DailySummary},
}

// JobName is the registration name of a trigger for one conversation.
func JobName(tr Trigger, conversationID string) string {
	return tr.Name + "-" + conversationID
}

// DayWindow returns [start, end) for the local calendar day that contains
// one second before now. Fired at midnight, that is the day that just ended.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	ref := now.In(loc).Add(-time.Second)
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

type Option func(*Scheduler)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.clock = now }
}

type Scheduler struct {
	registrar Registrar
	registry  Registry
	digests   Digests
	deliverer Deliverer
	loc       *time.Location
	clock     func() time.Time
	log       zerolog.Logger
}

func New(registrar Registrar, registry Registry, digests Digests, deliverer Deliverer, loc *time.Location, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		registrar: registrar,
		registry:  registry,
		digests:   digests,
		deliverer: deliverer,
		loc:       loc,
		clock:     time.Now,
		log:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure records the conversation and sets up its triggers the first time it
// is seen. It reports whether this call did the registration.
func (s *Scheduler) Ensure(ctx context.Context, conversationID string) (bool, error) {
	first, err := s.registry.RegisterConversation(ctx, conversationID, s.clock().In(s.loc))
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}
	if err := s.schedule(conversationID); err != nil {
		return true, err
	}
	s.log.Info().Str("conversation", conversationID).Msg("registered daily digests")
	return true, nil
}

// Restore sets up triggers for every conversation registered earlier.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	ids, err := s.registry.ListConversations(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := s.schedule(id); err != nil {
			s.log.Error().Err(err).Str("conversation", id).Msg("restoring daily digests")
			continue
		}
		n++
	}
	s.log.Info().Int("conversations", n).Msg("restored daily digests")
	return n, nil
}

func (s *Scheduler) schedule(conversationID string) error {
	for _, tr := range Triggers {
		tr := tr
		err := s.registrar.Register(JobName(tr, conversationID), tr.Spec, func() {
			_ = s.Fire(context.Background(), tr, conversationID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Fire renders and delivers one trigger for one conversation. Firing the same
// slot twice sends the same digest twice and changes nothing else.
func (s *Scheduler) Fire(ctx context.Context, tr Trigger, conversationID string) error {
	log := s.log.With().
		Str("event_id", uuid.NewString()).
		Str("job", tr.Name).
		Str("conversation", conversationID).
		Logger()

	var (
		content string
		err     error
	)
	switch tr.Kind {
	case OpenReminder:
		content, err = s.digests.Open(ctx, conversationID)
	case DailySummary:
		start, end := DayWindow(s.clock(), s.loc)
		log = log.With().Time("window_start", start).Time("window_end", end).Logger()
		content, err = s.digests.Completed(ctx, conversationID, start, end)
	default:
		err = fmt.Errorf("unknown trigger kind %d", tr.Kind)
	}
	if err != nil {
		log.Error().Err(err).Msg("building digest")
		return err
	}

	if err := s.deliverer.Send(conversationID, content); err != nil {
		log.Error().Err(err).Msg("delivering digest")
		return fmt.Errorf("delivering %s: %w", tr.Name, err)
	}
	log.Info().Msg("digest delivered")
	return nil
}
