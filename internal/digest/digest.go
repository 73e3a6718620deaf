// Package digest renders task lists as chat messages using the Discord
// markdown subset: bold and literal text. Every user-supplied string goes
// through Escape before it is embedded.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chris/nudge/internal/model"
	"github.com/chris/nudge/internal/tasks"
)

const (
	rule = "━━━━━━━━━━━━━━━━━━━━"

	// NothingPending is the whole open-list digest when no task is open.
	NothingPending = "✅ **No open tasks right now.**"

	agingMarker = "🔴 "
	emptyGroup  = "• (none)"
	dayLayout   = "02/01/2006"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
	"<", `\<`,
	"[", `\[`,
	"]", `\]`,
)

// Escape neutralizes markdown in s so it renders literally.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Bold escapes s and wraps it in bold markers.
func Bold(s string) string {
	return "**" + Escape(s) + "**"
}

// Header is a bold title between two rules.
func Header(title string) string {
	return rule + "\n" + Bold(title) + "\n" + rule
}

func sectionTitle(s model.Section) string {
	return "\n**━━━━━━━━━ " + s.String() + " ━━━━━━━━━**"
}

// OpenList renders ordered entries grouped by section. Every known section is
// shown, with a placeholder when empty. Tasks with an unrecognised section
// follow in a trailing group that only appears when it has members.
func OpenList(entries []tasks.Entry, now time.Time) string {
	if len(entries) == 0 {
		return NothingPending
	}

	groups := make(map[model.Section][]string)
	for _, e := range entries {
		section := e.Task.Section
		if !section.Known() {
			section = model.SectionUnknown
		}
		groups[section] = append(groups[section], entryLine(e, now))
	}

	lines := []string{Header("🧾 Open tasks")}
	for _, section := range model.Sections {
		lines = append(lines, sectionTitle(section))
		if items := groups[section]; len(items) > 0 {
			lines = append(lines, items...)
		} else {
			lines = append(lines, emptyGroup)
		}
	}
	if others := groups[model.SectionUnknown]; len(others) > 0 {
		lines = append(lines, sectionTitle(model.SectionUnknown))
		lines = append(lines, others...)
	}
	return strings.Join(lines, "\n")
}

func entryLine(e tasks.Entry, now time.Time) string {
	var marker, age string
	if e.Aging {
		marker = agingMarker
		age = " (" + humanize.RelTime(e.Task.CreatedAt, now, "ago", "from now") + ")"
	}
	return fmt.Sprintf("• %s**%d** — %s%s", marker, e.Number, Escape(e.Task.Body), age)
}

// Completed renders the tasks finished in the day starting at start, in the
// order given. Sections are left out on purpose.
func Completed(done []model.Task, start time.Time) string {
	lines := []string{Header("📅 Summary — " + start.Format(dayLayout))}

	switch n := len(done); n {
	case 0:
		lines = append(lines, "\n😅 **You finished 0 tasks today. Zero. Nada.**\n")
		return strings.Join(lines, "\n")
	case 1:
		lines = append(lines, "\n🔥 **You finished 1 task today**\n")
	default:
		lines = append(lines, fmt.Sprintf("\n🔥 **You finished %d tasks today**\n", n))
	}

	for _, t := range done {
		lines = append(lines, "• "+Escape(t.Body))
	}
	return strings.Join(lines, "\n")
}

// Builder fetches what a digest needs and renders it.
type Builder struct {
	tasks *tasks.Service
}

func NewBuilder(svc *tasks.Service) *Builder {
	return &Builder{tasks: svc}
}

// Open renders the conversation's open-task digest.
func (b *Builder) Open(ctx context.Context, conversationID string) (string, error) {
	entries, err := b.tasks.Open(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("building open digest: %w", err)
	}
	return OpenList(entries, b.tasks.Now()), nil
}

// Completed renders the tasks completed in [start, end).
func (b *Builder) Completed(ctx context.Context, conversationID string, start, end time.Time) (string, error) {
	done, err := b.tasks.DoneInRange(ctx, conversationID, start, end)
	if err != nil {
		return "", fmt.Errorf("building completed digest: %w", err)
	}
	return Completed(done, start.In(b.tasks.Location())), nil
}
