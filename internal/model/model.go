package model

import (
	"strings"
	"time"
)

// Section is the priority bucket a task is filed under.
type Section int

const (
	SectionUnknown Section = iota
	SectionUrgent
	SectionToday
	SectionTomorrow
	SectionGeneral
)

// Sections lists the known sections in display order.
var Sections = []Section{SectionUrgent, SectionToday, SectionTomorrow, SectionGeneral}

// Rank orders sections for listing. Unknown sections rank after every known one.
func (s Section) Rank() int {
	switch s {
	case SectionUrgent:
		return 0
	case SectionToday:
		return 1
	case SectionTomorrow:
		return 2
	case SectionGeneral:
		return 3
	default:
		return len(Sections)
	}
}

func (s Section) String() string {
	switch s {
	case SectionUrgent:
		return "Urgent"
	case SectionToday:
		return "Today"
	case SectionTomorrow:
		return "Tomorrow"
	case SectionGeneral:
		return "General"
	default:
		return "Other"
	}
}

// Known reports whether s is one of the four real sections.
func (s Section) Known() bool {
	return s.Rank() < len(Sections)
}

// sectionKeywords maps lower-cased keywords (English and Hebrew) to sections.
var sectionKeywords = map[string]Section{
	"urgent":   SectionUrgent,
	"today":    SectionToday,
	"tomorrow": SectionTomorrow,
	"general":  SectionGeneral,
	"דחוף":     SectionUrgent,
	"היום":     SectionToday,
	"מחר":      SectionTomorrow,
	"כללי":     SectionGeneral,
}

// SectionFromKeyword matches a single word against the section keywords,
// ignoring case. ok is false when the word is not a keyword.
func SectionFromKeyword(word string) (Section, bool) {
	s, ok := sectionKeywords[strings.ToLower(word)]
	return s, ok
}

// ParseSection reads a stored section name. Anything unrecognised becomes
// SectionUnknown rather than an error so old or foreign rows still list.
func ParseSection(name string) Section {
	if s, ok := SectionFromKeyword(strings.TrimSpace(name)); ok {
		return s
	}
	return SectionUnknown
}

// Task is a single tracked item in a conversation.
type Task struct {
	ID             int64
	ConversationID string
	Section        Section
	Body           string
	CreatedAt      time.Time
	Done           bool
	DoneAt         *time.Time
}
