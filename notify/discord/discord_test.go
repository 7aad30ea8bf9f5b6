package discord_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/xraph/vexsync/notify/discord"
)

type fakeAPI struct {
	sent      []*discordgo.MessageSend
	reactions []string
	err       error
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeAPI) MessageReactionAdd(_, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	if f.err != nil {
		return f.err
	}
	f.reactions = append(f.reactions, messageID+":"+emojiID)
	return nil
}

func TestSendAndReact(t *testing.T) {
	api := &fakeAPI{}
	ch, err := discord.New(api, "c1", "g1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ch.ID() != "c1" || ch.Guild() != "g1" {
		t.Fatalf("unexpected channel %s/%s", ch.ID(), ch.Guild())
	}

	embed := &discordgo.MessageEmbed{Title: "Kickoff"}
	msgID, err := ch.Send(context.Background(), "hello", embed)
	if err != nil {
		t.Fatal(err)
	}
	if msgID != "m1" {
		t.Fatalf("unexpected message id %q", msgID)
	}
	if len(api.sent) != 1 || api.sent[0].Content != "hello" || len(api.sent[0].Embeds) != 1 {
		t.Fatalf("unexpected send %+v", api.sent)
	}

	if err := ch.React(context.Background(), msgID, "🔴"); err != nil {
		t.Fatal(err)
	}
	if len(api.reactions) != 1 || api.reactions[0] != "m1:🔴" {
		t.Fatalf("unexpected reactions %v", api.reactions)
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	api := &fakeAPI{}
	ch, _ := discord.New(api, "c1", "g1", nil)

	if _, err := ch.Send(context.Background(), "", "unknown payload"); err == nil {
		t.Fatal("expected error for empty message")
	}
	if len(api.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestSendWrapsAPIError(t *testing.T) {
	boom := errors.New("boom")
	ch, _ := discord.New(&fakeAPI{err: boom}, "c1", "g1", nil)

	if _, err := ch.Send(context.Background(), "hi", nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewRequiresChannelID(t *testing.T) {
	if _, err := discord.New(&fakeAPI{}, "", "g1", nil); !errors.Is(err, discord.ErrNoChannelID) {
		t.Fatalf("expected ErrNoChannelID, got %v", err)
	}
}

func TestMessageSendCustomRenderer(t *testing.T) {
	render := func(payload any) ([]*discordgo.MessageEmbed, bool) {
		s, ok := payload.(string)
		if !ok {
			return nil, false
		}
		return []*discordgo.MessageEmbed{{Description: s}}, true
	}

	msg := discord.MessageSend("text", "body", render)
	if len(msg.Embeds) != 1 || msg.Embeds[0].Description != "body" {
		t.Fatalf("unexpected message %+v", msg)
	}

	msg = discord.MessageSend("text", 7, render)
	if len(msg.Embeds) != 0 || msg.Content != "text" {
		t.Fatalf("unknown payloads should be sent as text, got %+v", msg)
	}
}

func TestEmbeds(t *testing.T) {
	if _, ok := discord.Embeds((*discordgo.MessageEmbed)(nil)); ok {
		t.Fatal("nil embed should not render")
	}
	if _, ok := discord.Embeds([]*discordgo.MessageEmbed{}); ok {
		t.Fatal("empty embeds should not render")
	}
	if e, ok := discord.Embeds([]*discordgo.MessageEmbed{{Title: "a"}, {Title: "b"}}); !ok || len(e) != 2 {
		t.Fatal("embed slices should pass through")
	}
}
