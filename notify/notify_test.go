package notify_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/store/memory"
	"github.com/xraph/vexsync/team"
)

type sent struct {
	text      string
	payload   any
	reactions []string
}

type fakeChannel struct {
	id       string
	guild    string
	sendErr  error
	reactErr error

	mu   sync.Mutex
	msgs map[string]*sent
	ids  []string
}

func newChannel(id, guild string) *fakeChannel {
	return &fakeChannel{id: id, guild: guild, msgs: make(map[string]*sent)}
}

func (c *fakeChannel) ID() string    { return c.id }
func (c *fakeChannel) Guild() string { return c.guild }

func (c *fakeChannel) Send(_ context.Context, text string, payload any) (string, error) {
	if c.sendErr != nil {
		return "", c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	msgID := c.id + "-" + string(rune('a'+len(c.ids)))
	c.ids = append(c.ids, msgID)
	c.msgs[msgID] = &sent{text: text, payload: payload}
	return msgID, nil
}

func (c *fakeChannel) React(_ context.Context, messageID, emoji string) error {
	if c.reactErr != nil {
		return c.reactErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.msgs[messageID]
	if !ok {
		return errors.New("unknown message")
	}
	m.reactions = append(m.reactions, emoji)
	return nil
}

func (c *fakeChannel) last() *sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ids) == 0 {
		return nil
	}
	return c.msgs[c.ids[len(c.ids)-1]]
}

func TestNotifyMentionsSubscribersOncePerGuild(t *testing.T) {
	s := memory.New()
	a := team.Ref{Program: program.VRC, ID: "1A"}
	b := team.Ref{Program: program.VRC, ID: "2B"}
	s.Subscribe("g1", a, "u1", "u2")
	s.Subscribe("g1", b, "u2", "u3")
	s.Subscribe("g2", a, "u9")

	one := newChannel("c1", "g1")
	two := newChannel("c2", "g2")
	fan := notify.NewFanout(s, []notify.Channel{one, two}, nil, nil, nil)

	report := fan.Notify(context.Background(), notify.Message{Content: "hello", Payload: 42}, []team.Ref{a, b}, nil)
	if report.Failed() != 0 {
		t.Fatalf("unexpected failures %+v", report.Outcomes)
	}
	if report.ID.Prefix() != "ntf" {
		t.Fatalf("unexpected report id %s", report.ID)
	}

	if got := one.last().text; got != "hello\n<@u1><@u2><@u3>" {
		t.Fatalf("unexpected text %q", got)
	}
	if one.last().payload != 42 {
		t.Fatal("payload should be passed through")
	}
	if got := two.last().text; got != "hello\n<@u9>" {
		t.Fatalf("unexpected text %q", got)
	}
	if !slices.Equal(report.Outcomes[0].Mentions, []string{"u1", "u2", "u3"}) {
		t.Fatalf("unexpected mentions %v", report.Outcomes[0].Mentions)
	}
}

func TestNotifyIsolatesFailingChannel(t *testing.T) {
	broken := newChannel("c1", "g1")
	broken.sendErr = errors.New("gateway down")
	ok := newChannel("c2", "g1")
	fan := notify.NewFanout(memory.New(), []notify.Channel{broken, ok}, nil, nil, nil)

	report := fan.Notify(context.Background(), notify.Message{Content: "hi"}, nil, nil)
	if report.Failed() != 1 {
		t.Fatalf("expected one failure, got %+v", report.Outcomes)
	}
	if report.Outcomes[0].Channel != "c1" || report.Outcomes[0].Err == nil {
		t.Fatalf("outcomes should follow channel order, got %+v", report.Outcomes)
	}
	if report.Outcomes[1].MessageID == "" || ok.last().text != "hi" {
		t.Fatal("healthy channel should still deliver")
	}
}

func TestNotifyAddsReactionsInOrder(t *testing.T) {
	ch := newChannel("c1", "g1")
	fan := notify.NewFanout(memory.New(), []notify.Channel{ch}, nil, nil, nil)

	fan.Notify(context.Background(), notify.Message{Content: "Q1"}, nil, notify.AllianceReactions)

	if got := ch.last().reactions; !slices.Equal(got, []string{"🔴", "🔵"}) {
		t.Fatalf("unexpected reactions %v", got)
	}
}

func TestNotifyReportsReactionFailure(t *testing.T) {
	ch := newChannel("c1", "g1")
	ch.reactErr = errors.New("missing permission")
	fan := notify.NewFanout(memory.New(), []notify.Channel{ch}, nil, nil, nil)

	report := fan.Notify(context.Background(), notify.Message{Content: "Q1"}, nil, notify.ScoredReactions)
	if report.Failed() != 1 || report.Outcomes[0].MessageID == "" {
		t.Fatalf("expected sent message with failed reaction, got %+v", report.Outcomes[0])
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		content string
		users   []string
		want    string
	}{
		{"hi", nil, "hi"},
		{"", []string{"u1"}, "<@u1>"},
		{"hi", []string{"u1", "u2"}, "hi\n<@u1><@u2>"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		if got := notify.Compose(tt.content, tt.users); got != tt.want {
			t.Errorf("Compose(%q, %v) = %q, want %q", tt.content, tt.users, got, tt.want)
		}
	}
}
