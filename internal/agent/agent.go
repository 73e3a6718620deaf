package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chris/nudge/internal/classify"
	"github.com/chris/nudge/internal/digest"
	"github.com/chris/nudge/internal/tasks"
)

const (
	replyFailed   = "Something went wrong. Try again?"
	replyNotFound = "Couldn't find that number on the list."

	usage = "Write a task, for example:\n" +
		"• **feed the cat urgent**\n" +
		"• **drink water tomorrow**\n" +
		"• **go to the beach**"
)

var welcome = digest.Header("🤖 Ready") +
	"\n\nEvery message is a new task.\n" +
	"To file it under a section, end it with: **Urgent** / **Today** / **Tomorrow**\n\n" +
	"**list** — show open tasks\n" +
	"**done 7** — complete by list number\n"

// Registrar sets up a conversation's daily digests the first time it is seen.
type Registrar interface {
	Ensure(ctx context.Context, conversationID string) (bool, error)
}

type Agent struct {
	tasks     *tasks.Service
	digests   *digest.Builder
	registrar Registrar
	log       zerolog.Logger
}

func New(svc *tasks.Service, digests *digest.Builder, registrar Registrar, logger zerolog.Logger) *Agent {
	return &Agent{tasks: svc, digests: digests, registrar: registrar, log: logger}
}

// Run handles one inbound message and returns the replies to send, in order.
// Failures are logged and turned into a fixed reply; they never escape.
func (a *Agent) Run(ctx context.Context, conversationID, text string) []string {
	log := a.log.With().
		Str("event_id", uuid.NewString()).
		Str("conversation", conversationID).
		Logger()

	var replies []string
	first, err := a.registrar.Ensure(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("registering conversation")
	}
	if first {
		replies = append(replies, welcome)
	}

	cmd := classify.Classify(text)
	log = log.With().Stringer("kind", cmd.Kind).Logger()

	reply, err := a.execute(ctx, conversationID, cmd)
	if err != nil {
		log.Error().Err(err).Msg("handling message")
		reply = replyFailed
	} else {
		log.Debug().Msg("message handled")
	}
	return append(replies, reply)
}

func (a *Agent) execute(ctx context.Context, conversationID string, cmd classify.Command) (string, error) {
	switch cmd.Kind {
	case classify.List:
		return a.digests.Open(ctx, conversationID)

	case classify.Complete:
		t, err := a.tasks.Complete(ctx, conversationID, cmd.Number)
		if errors.Is(err, tasks.ErrNotFound) {
			return replyNotFound, nil
		}
		if err != nil {
			return "", err
		}
		return "Marked as done ✅ " + digest.Escape(t.Body), nil

	case classify.Empty:
		return usage, nil

	default:
		if _, err := a.tasks.Add(ctx, conversationID, cmd.Section, cmd.Body); err != nil {
			return "", err
		}
		return "Added ✅ " + digest.Bold(cmd.Section.String()), nil
	}
}
