package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// --- stripMention ---

func TestStripMention_Standard(t *testing.T) {
	got := stripMention("<@123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Nickname(t *testing.T) {
	got := stripMention("<@!123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Both(t *testing.T) {
	got := stripMention("<@123> and <@!123>", "123")
	want := " and "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_NoMention(t *testing.T) {
	got := stripMention("just text", "123")
	if got != "just text" {
		t.Errorf("got %q, want %q", got, "just text")
	}
}

func TestStripMention_WrongUser(t *testing.T) {
	input := "<@999> hello"
	got := stripMention(input, "123")
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestStripMention_Empty(t *testing.T) {
	got := stripMention("", "123")
	if got != "" {
		t.Errorf("got %q, want %q", got, "")
	}
}

// --- splitMessage ---

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("expected single chunk 'hello', got %v", chunks)
	}
}

func TestSplitMessage_ExactLimit(t *testing.T) {
	s := strings.Repeat("a", 2000)
	chunks := splitMessage(s, 2000)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitMessage_SplitsAtNewline(t *testing.T) {
	// 15 chars of "a", then newline, then 15 chars of "b" = 31 chars total
	s := strings.Repeat("a", 15) + "\n" + strings.Repeat("b", 15)
	chunks := splitMessage(s, 20)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	// First chunk should split at the newline (16 chars: 15 a's + newline)
	if chunks[0] != strings.Repeat("a", 15)+"\n" {
		t.Errorf("chunk[0] = %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 15) {
		t.Errorf("chunk[1] = %q", chunks[1])
	}
}

func TestSplitMessage_NoNewlineFallback(t *testing.T) {
	// No newlines: hard-split at maxLen
	s := strings.Repeat("x", 50)
	chunks := splitMessage(s, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 20) {
		t.Errorf("chunk[0] length = %d, want 20", len(chunks[0]))
	}
	if chunks[1] != strings.Repeat("x", 20) {
		t.Errorf("chunk[1] length = %d, want 20", len(chunks[1]))
	}
	if chunks[2] != strings.Repeat("x", 10) {
		t.Errorf("chunk[2] length = %d, want 10", len(chunks[2]))
	}
}

func TestSplitMessage_Empty(t *testing.T) {
	chunks := splitMessage("", 2000)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("expected single empty chunk, got %v", chunks)
	}
}

func TestSplitMessage_MultipleNewlines(t *testing.T) {
	// Should prefer the LAST newline before the limit
	s := "line1\nline2\nline3\nline4"
	chunks := splitMessage(s, 12)

	// "line1\nline2\n" is 12 chars, so the split lands right there
	if chunks[0] != "line1\nline2\n" {
		t.Errorf("chunk[0] = %q, want %q", chunks[0], "line1\nline2\n")
	}
}

func TestSplitMessage_KeepsRunesWhole(t *testing.T) {
	// Each Hebrew letter is two bytes; a 5-byte limit must not cut one in half.
	s := strings.Repeat("ש", 6)
	chunks := splitMessage(s, 5)
	if strings.Join(chunks, "") != s {
		t.Fatalf("chunks do not reassemble: %q", chunks)
	}
	for i, c := range chunks {
		if len(c) > 5 || !utf8.ValidString(c) {
			t.Errorf("chunk[%d] = %q is too long or not valid UTF-8", i, c)
		}
	}
}

func TestSplitMessage_DigestOverLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, "• **1** — "+strings.Repeat("x", 10))
	}
	s := strings.Join(lines, "\n")
	chunks := splitMessage(s, maxMessageLen)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, "\n") {
			t.Errorf("chunk[%d] should end at a line break", i)
		}
	}
	if strings.Join(chunks, "") != s {
		t.Error("chunks do not reassemble")
	}
}

// --- inbound ---

func message(content, guildID, authorID string, mentions ...string) *discordgo.MessageCreate {
	m := &discordgo.Message{
		Content: content,
		GuildID: guildID,
		Author:  &discordgo.User{ID: authorID},
	}
	for _, id := range mentions {
		m.Mentions = append(m.Mentions, &discordgo.User{ID: id})
	}
	return &discordgo.MessageCreate{Message: m}
}

func TestInbound(t *testing.T) {
	const bot = "42"

	tests := []struct {
		name   string
		msg    *discordgo.MessageCreate
		want   string
		wantOK bool
	}{
		{"direct message", message("  buy milk  ", "", "7"), "buy milk", true},
		{"guild mention", message("<@42> call bank urgent", "g1", "7", bot), "call bank urgent", true},
		{"guild nickname mention", message("<@!42> list", "g1", "7", bot), "list", true},
		{"guild without mention", message("buy milk", "g1", "7"), "", false},
		{"guild mentioning someone else", message("<@9> hi", "g1", "7", "9"), "", false},
		{"own message", message("Added ✅ **General**", "", bot), "", false},
		{"mention only", message("<@42>", "g1", "7", bot), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := inbound(tt.msg, bot)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("inbound() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInbound_IgnoresOtherBots(t *testing.T) {
	m := message("hello", "", "8")
	m.Author.Bot = true
	if _, ok := inbound(m, "42"); ok {
		t.Error("messages from other bots should be ignored")
	}
}
