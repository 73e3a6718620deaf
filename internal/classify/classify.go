// Package classify turns a raw chat message into a command: show the list,
// complete a task by its display number, or add a new task.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/chris/nudge/internal/model"
)

type Kind int

const (
	// NewTask carries a section and a non-empty body.
	NewTask Kind = iota
	// List asks for the open-task digest.
	List
	// Complete carries a 1-based display number.
	Complete
	// Empty means nothing was left to store after removing the section keyword.
	Empty
)

func (k Kind) String() string {
	switch k {
	case NewTask:
		return "new_task"
	case List:
		return "list"
	case Complete:
		return "complete"
	case Empty:
		return "empty"
	}
	return "unknown"
}

type Command struct {
	Kind    Kind
	Number  int
	Section model.Section
	Body    string
}

var listPhrases = map[string]bool{
	"list":       true,
	"show list":  true,
	"רשימה":      true,
	"הצג רשימה":  true,
	"תראה רשימה": true,
	"תציג רשימה": true,
}

var completeVerbs = map[string]bool{
	"done":     true,
	"complete": true,
	"finish":   true,
	"סיים":     true,
	"סיימתי":   true,
}

var completeRe = regexp.MustCompile(`^(\S+) ([0-9]+)$`)

// Normalize composes the text to NFC, collapses runs of whitespace into a
// single space and trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Classify interprets a message. The input does not need to be normalized.
func Classify(text string) Command {
	text = Normalize(text)
	lower := strings.ToLower(text)

	if listPhrases[lower] {
		return Command{Kind: List}
	}

	if m := completeRe.FindStringSubmatch(lower); m != nil && completeVerbs[m[1]] {
		// Numbers too large to parse can never be on the list; 0 resolves to not-found.
		n, err := strconv.Atoi(m[2])
		if err != nil {
			n = 0
		}
		return Command{Kind: Complete, Number: n}
	}

	return splitSection(text)
}

// splitSection strips a trailing section keyword. Without one the whole text
// is the body and the section is General.
func splitSection(text string) Command {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Command{Kind: Empty, Section: model.SectionGeneral}
	}

	section, ok := model.SectionFromKeyword(words[len(words)-1])
	if !ok {
		return Command{Kind: NewTask, Section: model.SectionGeneral, Body: text}
	}

	body := strings.Join(words[:len(words)-1], " ")
	if body == "" {
		return Command{Kind: Empty, Section: section}
	}
	return Command{Kind: NewTask, Section: section, Body: body}
}
