// Package discord is a notify.Channel backed by the Discord REST API.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xraph/vexsync/notify"
)

// compile-time interface checks.
var (
	_ notify.Channel = (*Channel)(nil)
	_ API            = (*discordgo.Session)(nil)
)

// ErrNoChannelID is returned when a channel is configured without an ID.
var ErrNoChannelID = errors.New("vexsync: discord channel id is required")

// API is the subset of *discordgo.Session the channel uses.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Renderer turns a notification payload into embeds. It returns false for
// payloads it does not know, which are then sent as text only.
type Renderer func(payload any) ([]*discordgo.MessageEmbed, bool)

// Channel posts notifications to one Discord text channel.
type Channel struct {
	api       API
	channelID string
	guildID   string
	render    Renderer
}

// New creates a channel posting to channelID whose subscriptions are read
// from guildID. A nil render uses Embeds.
func New(api API, channelID, guildID string, render Renderer) (*Channel, error) {
	if channelID == "" {
		return nil, ErrNoChannelID
	}
	if render == nil {
		render = Embeds
	}
	return &Channel{api: api, channelID: channelID, guildID: guildID, render: render}, nil
}

// Open creates a channel for channelID, looking up its guild through the session.
func Open(ctx context.Context, s *discordgo.Session, channelID string, render Renderer) (*Channel, error) {
	ch, err := s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: lookup channel %s: %w", channelID, err)
	}
	return New(s, channelID, ch.GuildID, render)
}

// ID implements notify.Channel.
func (c *Channel) ID() string { return c.channelID }

// Guild implements notify.Channel.
func (c *Channel) Guild() string { return c.guildID }

// Send implements notify.Channel.
func (c *Channel) Send(ctx context.Context, text string, payload any) (string, error) {
	msg := MessageSend(text, payload, c.render)
	if msg.Content == "" && len(msg.Embeds) == 0 {
		return "", fmt.Errorf("discord: empty message for channel %s", c.channelID)
	}

	sent, err := c.api.ChannelMessageSendComplex(c.channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: send to %s: %w", c.channelID, err)
	}
	return sent.ID, nil
}

// React implements notify.Channel.
func (c *Channel) React(ctx context.Context, messageID, emoji string) error {
	if err := c.api.MessageReactionAdd(c.channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: react %s on %s: %w", emoji, messageID, err)
	}
	return nil
}

// MessageSend builds the Discord message for text and payload.
func MessageSend(text string, payload any, render Renderer) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{Content: text}
	if payload == nil || render == nil {
		return msg
	}
	if embeds, ok := render(payload); ok {
		msg.Embeds = embeds
	}
	return msg
}

// Embeds is the default Renderer. It accepts embeds built by the caller.
func Embeds(payload any) ([]*discordgo.MessageEmbed, bool) {
	switch p := payload.(type) {
	case *discordgo.MessageEmbed:
		if p == nil {
			return nil, false
		}
		return []*discordgo.MessageEmbed{p}, true
	case []*discordgo.MessageEmbed:
		return p, len(p) > 0
	default:
		return nil, false
	}
}
