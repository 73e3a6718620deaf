package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// maxMessageLen is Discord's limit on message content.
const maxMessageLen = 2000

// Handler turns one inbound message into the replies to send.
type Handler interface {
	Run(ctx context.Context, conversationID, text string) []string
}

// Bot is the chat transport. A conversation is a Discord channel: a DM or a
// guild channel where the bot is mentioned.
type Bot struct {
	session *discordgo.Session
	handler Handler
	log     zerolog.Logger
}

// NewBot prepares a session without connecting, so the bot can be handed to
// components that send messages before Start is called.
func NewBot(token string, logger zerolog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Bot{session: s, log: logger}, nil
}

// Start registers h for inbound messages and opens the gateway connection.
func (b *Bot) Start(h Handler) error {
	b.handler = h
	b.session.AddHandler(b.onMessage)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	b.log.Info().Str("user", b.session.State.User.Username).Msg("discord bot connected")
	return nil
}

// Send delivers content to a channel, split into as many messages as the
// length limit requires. Mentions in the content never ping anyone.
func (b *Bot) Send(channelID, content string) error {
	for _, chunk := range splitMessage(content, maxMessageLen) {
		_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		})
		if err != nil {
			return fmt.Errorf("sending to channel %s: %w", channelID, err)
		}
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}
