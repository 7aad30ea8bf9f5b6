// Command vexsync keeps a MongoDB catalog of competition data in sync with the
// remote competition service on a schedule and posts notifications to the
// configured Discord channels and webhooks.
//
// Configuration comes from the YAML file named by VEXSYNC_CONFIG and from
// VEXSYNC_ environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/vexsync"
	"github.com/xraph/vexsync/api"
	"github.com/xraph/vexsync/event"
	"github.com/xraph/vexsync/internal/config"
	"github.com/xraph/vexsync/lock"
	redislock "github.com/xraph/vexsync/lock/redis"
	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/notify/discord"
	"github.com/xraph/vexsync/notify/webhook"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/remote"
	"github.com/xraph/vexsync/schedule"
	"github.com/xraph/vexsync/store/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("vexsync exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("VEXSYNC_CONFIG"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTelEndpoint, "vexsync")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flush traces failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	tracer := observability.NewTracer()

	st, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", vexsync.ErrMigrationFailed, err)
	}

	remoteCfg := remote.DefaultConfig()
	remoteCfg.BaseURL = cfg.RemoteBaseURL
	remoteCfg.RequestsPerSecond = cfg.RemoteRPS
	client, err := remote.New(remoteCfg,
		remote.WithLogger(logger),
		remote.WithMetrics(metrics),
		remote.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	channels, err := openChannels(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []vexsync.Option{
		vexsync.WithStore(st),
		vexsync.WithRemote(client),
		vexsync.WithLogger(logger),
		vexsync.WithMetrics(metrics),
		vexsync.WithTracer(tracer),
		vexsync.WithChannels(channels...),
		vexsync.WithConcurrency(cfg.Concurrency),
		vexsync.WithNotifyRegistrations(cfg.NotifyRegistrations),
		vexsync.WithActive(cfg.Active...),
	}
	if zones, err := event.NewTZFResolver(); err != nil {
		logger.Warn("time zone data unavailable, using fallback zone", "zone", event.FallbackZone, "error", err)
	} else {
		opts = append(opts, vexsync.WithZoneResolver(zones))
	}

	engine, err := vexsync.New(opts...)
	if err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	sched := schedule.New(
		schedule.WithLogger(logger),
		schedule.WithMetrics(metrics),
		schedule.WithLocker(locker),
	)
	if err := addJobs(sched, engine, cfg); err != nil {
		return err
	}

	srv := httpServer(cfg.HTTPAddr, reg, api.NewHandler(engine, sched, st, logger))
	if srv != nil {
		go func() {
			logger.Info("http listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", "error", err)
			}
		}()
	}

	err = sched.Run(ctx)

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
	return err
}

// openChannels builds the Discord and webhook notification channels.
func openChannels(ctx context.Context, cfg *config.Config) ([]notify.Channel, error) {
	var channels []notify.Channel

	if len(cfg.DiscordChannels) > 0 {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("discord session: %w", err)
		}
		for _, channelID := range cfg.DiscordChannels {
			ch, err := discord.Open(ctx, session, channelID, nil)
			if err != nil {
				return nil, err
			}
			channels = append(channels, ch)
		}
	}

	for _, w := range cfg.Webhooks {
		ch, err := webhook.New(webhook.Config{ID: w.ID, Guild: w.Guild, URL: w.URL, Secret: w.Secret})
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// newLocker returns the Redis locker when configured and an in-process one
// otherwise.
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewMemory(), func() {}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return redislock.New(rdb), func() { _ = rdb.Close() }, nil
}

// addJobs registers a job for every pass. Passes with a zero interval are
// manual: they have no timer and run only through the operations API.
func addJobs(s *schedule.Scheduler, e *vexsync.Engine, cfg *config.Config) error {
	passes := map[string]func(context.Context) (*vexsync.Tally, error){
		"programs":        e.SyncProgramsAndSeasons,
		"active":          e.SyncActive,
		"all_teams":       e.SyncAllTeams,
		"all_events":      e.SyncAllEvents,
		"all_skills":      e.SyncAllMaxSkills,
		"current_events":  e.SyncCurrentEvents,
		"existing_events": e.SyncExistingEvents,
	}
	order := []string{"programs", "active", "all_teams", "all_events", "all_skills", "current_events", "existing_events"}
	intervals := cfg.Intervals()

	for _, name := range order {
		pass := passes[name]
		job := schedule.Job{
			Name: name,
			Run: func(ctx context.Context) error {
				_, err := pass(ctx)
				return err
			},
		}
		if interval := intervals[name]; interval > 0 {
			job.Interval = interval
			job.Jitter = cfg.Jitter
			job.Immediate = cfg.RunOnStart
		} else {
			job.Manual = true
		}
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}

// httpServer serves /metrics from reg and everything else from ops.
func httpServer(addr string, reg *prometheus.Registry, ops http.Handler) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/", ops)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
