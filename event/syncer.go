package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/internal/entity"
	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/program"
	"github.com/xraph/vexsync/remote"
)

// Fetcher loads a season's events.
type Fetcher interface {
	Events(ctx context.Context, program, season int, when remote.Window) ([]remote.Event, error)
}

// Syncer transforms remote events and hands each to an Updater.
type Syncer struct {
	updater  Updater
	store    Store
	fetcher  Fetcher
	zones    ZoneResolver
	fallback *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// NewSyncer creates an event syncer. store backs SyncCurrent and
// SyncExisting; zones may be nil, in which case every event uses
// FallbackZone.
func NewSyncer(updater Updater, store Store, fetcher Fetcher, zones ZoneResolver, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	fallback, err := time.LoadLocation(FallbackZone)
	if err != nil {
		fallback = time.UTC
	}
	return &Syncer{
		updater:  updater,
		store:    store,
		fetcher:  fetcher,
		zones:    zones,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// Sync fetches the season's events in the window and updates each in
// payload order. Failures of single events are logged and counted.
// Updated counts the events handed to the updater.
func (s *Syncer) Sync(ctx context.Context, prog, season int, when remote.Window) (_ *entity.Tally, err error) {
	passID := id.NewPassID()
	ctx, span := s.tracer.StartPassSpan(ctx, "events_"+string(when), passID.String(), prog, season)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordPass("events", err, time.Since(start))
	}()

	remotes, err := s.fetcher.Events(ctx, prog, season, when)
	if err != nil {
		return nil, err
	}

	tally := &entity.Tally{}
	for _, re := range remotes {
		e, tErr := s.Transform(ctx, re)
		if tErr != nil {
			s.logger.ErrorContext(ctx, "skipping event",
				"pass_id", passID.String(),
				"sku", re.SKU,
				"error", tErr,
			)
			tally.Record(entity.Failed)
			continue
		}
		if err := s.update(ctx, passID, e, tally); err != nil {
			return tally, err
		}
	}

	s.logger.InfoContext(ctx, "events synced",
		"pass_id", passID.String(),
		"program", program.Name(prog),
		"season", season,
		"when", string(when),
		"updated", tally.Updated,
		"failed", tally.Failed,
	)
	return tally, nil
}

// SyncCurrent re-runs the updater for stored events taking place at now.
func (s *Syncer) SyncCurrent(ctx context.Context, now time.Time) (*entity.Tally, error) {
	return s.resync(ctx, "events_current", ListOpts{ActiveAt: now})
}

// SyncExisting re-runs the updater for every stored event.
func (s *Syncer) SyncExisting(ctx context.Context) (*entity.Tally, error) {
	return s.resync(ctx, "events_existing", ListOpts{})
}

func (s *Syncer) resync(ctx context.Context, kind string, opts ListOpts) (_ *entity.Tally, err error) {
	passID := id.NewPassID()
	ctx, span := s.tracer.StartPassSpan(ctx, kind, passID.String(), 0, 0)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordPass(kind, err, time.Since(start))
	}()

	events, err := s.store.ListEvents(ctx, opts)
	if err != nil {
		return nil, err
	}

	tally := &entity.Tally{}
	for _, e := range events {
		if err := s.update(ctx, passID, e, tally); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

// update hands one event to the updater. Only context errors are returned.
func (s *Syncer) update(ctx context.Context, passID id.ID, e *Event, tally *entity.Tally) error {
	s.logger.DebugContext(ctx, "updating event", "pass_id", passID.String(), "sku", e.SKU)

	if err := s.updater.UpdateEvent(ctx, e); err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.ErrorContext(ctx, "update event failed",
			"pass_id", passID.String(),
			"sku", e.SKU,
			"error", err,
		)
		tally.Record(entity.Failed)
		return nil
	}
	tally.Record(entity.Updated)
	return nil
}

// Transform maps a remote event to an Event, computing its dates in the
// event's local zone.
func (s *Syncer) Transform(ctx context.Context, re remote.Event) (*Event, error) {
	lat, lng := float64(re.Lat), float64(re.Lng)

	loc := s.fallback
	if s.zones != nil {
		zone, err := s.zones.Zone(lat, lng)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "time zone lookup failed",
				"sku", re.SKU,
				"lat", lat,
				"lng", lng,
				"error", err,
			)
		case zone != nil:
			loc = zone
		}
	}

	start, end, err := ParseDateRange(re.Date, loc)
	if err != nil {
		return nil, errors.Join(remote.ErrPayloadShape, err)
	}

	return &Event{
		SKU:      re.SKU,
		Season:   int(re.SeasonID),
		Program:  int(re.ProgramID),
		Name:     re.Name,
		Start:    start,
		End:      end,
		Lat:      lat,
		Lng:      lng,
		TimeZone: loc.String(),
		Email:    re.Email,
		Phone:    re.Phone,
		Webcast:  re.WebcastLink,
	}, nil
}
