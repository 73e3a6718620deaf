package tasks

import (
	"cmp"
	"slices"
	"time"

	"github.com/chris/nudge/internal/model"
)

// AgingAfter is how long a task may stay open before it is flagged.
const AgingAfter = 7 * 24 * time.Hour

// Entry is an open task with its display number. Numbers are a view over the
// current open set and shift whenever a task is added or completed.
type Entry struct {
	Number int
	Task   model.Task
	Aging  bool
}

// IsAging reports whether a task created at created is old enough to flag at now.
func IsAging(created, now time.Time) bool {
	return now.Sub(created) >= AgingAfter
}

// Order sorts open tasks by section rank, then creation time, then ID, and
// numbers them from 1. The input slice is not modified.
func Order(open []model.Task, now time.Time) []Entry {
	sorted := slices.Clone(open)
	slices.SortStableFunc(sorted, func(a, b model.Task) int {
		if c := cmp.Compare(a.Section.Rank(), b.Section.Rank()); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	entries := make([]Entry, len(sorted))
	for i, t := range sorted {
		entries[i] = Entry{Number: i + 1, Task: t, Aging: IsAging(t.CreatedAt, now)}
	}
	return entries
}

// Lookup returns the entry with display number n.
func Lookup(entries []Entry, n int) (Entry, bool) {
	if n < 1 || n > len(entries) {
		return Entry{}, false
	}
	return entries[n-1], true
}
