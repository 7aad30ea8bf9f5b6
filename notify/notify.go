// Package notify fans a change out to the configured chat channels, mentioning
// the users subscribed to the teams concerned.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/subscription"
	"github.com/xraph/vexsync/team"
)

// Channel is a destination for notifications. Guild names the scope its
// subscriptions are read from.
type Channel interface {
	ID() string
	Guild() string

	// Send posts text with an optional rich payload and returns the message ID.
	Send(ctx context.Context, text string, payload any) (string, error)

	// React adds an emoji reaction to a sent message.
	React(ctx context.Context, messageID, emoji string) error
}

// Message is what a notification says.
type Message struct {
	Content string
	Payload any
}

// Outcome is the result of one channel delivery.
type Outcome struct {
	Channel   string
	MessageID string
	Mentions  []string
	Err       error
}

// Report summarizes one fan-out.
type Report struct {
	ID       id.ID
	Outcomes []Outcome
}

// Failed returns the number of channels that failed.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Fanout delivers notifications to every configured channel.
type Fanout struct {
	channels []Channel
	subs     subscription.Store
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// NewFanout creates a fan-out over channels reading subscriptions from subs.
func NewFanout(subs subscription.Store, channels []Channel, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{channels: channels, subs: subs, logger: logger, metrics: metrics, tracer: tracer}
}

// Channels returns the configured channels.
func (f *Fanout) Channels() []Channel { return f.channels }

// Notify sends msg to every channel concurrently, mentioning the subscribers
// of teams, then adds reactions in order. A failing channel does not affect
// the others. Notify returns once every channel is done.
func (f *Fanout) Notify(ctx context.Context, msg Message, teams []team.Ref, reactions []string) *Report {
	report := &Report{ID: id.NewNotifyID(), Outcomes: make([]Outcome, len(f.channels))}
	ctx, span := f.tracer.StartNotifySpan(ctx, report.ID.String(), len(f.channels))
	defer span.End()

	var g errgroup.Group
	for i, ch := range f.channels {
		g.Go(func() error {
			out := f.deliver(ctx, ch, msg, teams, reactions)
			if out.Err != nil {
				f.logger.ErrorContext(ctx, "notification failed",
					"notify_id", report.ID.String(),
					"channel", ch.ID(),
					"error", out.Err,
				)
			}
			f.metrics.RecordNotification(out.Err)
			report.Outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	f.logger.InfoContext(ctx, "notification sent",
		"notify_id", report.ID.String(),
		"channels", len(f.channels),
		"failed", report.Failed(),
	)
	return report
}

func (f *Fanout) deliver(ctx context.Context, ch Channel, msg Message, teams []team.Ref, reactions []string) Outcome {
	out := Outcome{Channel: ch.ID()}

	users, err := f.subscribers(ctx, ch.Guild(), teams)
	if err != nil {
		out.Err = err
		return out
	}
	out.Mentions = users

	messageID, err := ch.Send(ctx, Compose(msg.Content, users), msg.Payload)
	if err != nil {
		out.Err = err
		return out
	}
	out.MessageID = messageID

	for _, emoji := range reactions {
		if err := ch.React(ctx, messageID, emoji); err != nil {
			out.Err = err
			return out
		}
	}
	return out
}

// subscribers returns the users following any of teams in guild, each once,
// in first-seen order.
func (f *Fanout) subscribers(ctx context.Context, guild string, teams []team.Ref) ([]string, error) {
	var users []string
	seen := make(map[string]struct{})

	for _, t := range teams {
		subs, err := f.subs.ListSubscriptions(ctx, guild, t)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			for _, u := range sub.Users {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				users = append(users, u)
			}
		}
	}
	return users, nil
}

// Compose joins content and the user mentions with a newline. Either part
// may be empty.
func Compose(content string, users []string) string {
	var mentions strings.Builder
	for _, u := range users {
		mentions.WriteString("<@")
		mentions.WriteString(u)
		mentions.WriteString(">")
	}

	switch {
	case content == "":
		return mentions.String()
	case mentions.Len() == 0:
		return content
	default:
		return content + "\n" + mentions.String()
	}
}
