package discord

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	text, ok := inbound(m, s.State.User.ID)
	if !ok {
		return
	}

	// Show typing indicator
	_ = s.ChannelTyping(m.ChannelID)

	for _, reply := range b.handler.Run(context.Background(), m.ChannelID, text) {
		if err := b.Send(m.ChannelID, reply); err != nil {
			b.log.Error().Err(err).Str("conversation", m.ChannelID).Msg("sending reply")
			return
		}
	}
}

// inbound returns the text the bot should act on, or false when the message
// is not addressed to it. DMs always are; guild messages need a mention.
func inbound(m *discordgo.MessageCreate, botID string) (string, bool) {
	if m.Author == nil || m.Author.ID == botID || m.Author.Bot {
		return "", false
	}

	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == botID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return "", false
	}

	// Whitespace-only messages still reach the handler, which answers with usage.
	return strings.TrimSpace(stripMention(m.Content, botID)), true
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// splitMessage cuts s into chunks of at most maxLen bytes, preferring the
// last newline in range and never cutting through a UTF-8 sequence.
func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end >= len(s) {
			end = len(s)
		} else if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		} else {
			for end > 0 && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == 0 {
				_, end = utf8.DecodeRuneInString(s)
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
