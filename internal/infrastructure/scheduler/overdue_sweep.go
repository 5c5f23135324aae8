package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"

	"github.com/bibbank/debt-service/internal/application/dto"
)

// OverdueMarker runs the overdue sweep.
type OverdueMarker interface {
	Execute(ctx context.Context, req dto.MarkOverdueRequest) (dto.MarkOverdueResponse, error)
}

// OverdueSweeper runs the overdue sweep on a cron schedule.
type OverdueSweeper struct {
	cron    *cron.Cron
	marker  OverdueMarker
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
	timeout time.Duration
}

// Option tunes an OverdueSweeper.
type Option func(*OverdueSweeper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *OverdueSweeper) { s.now = now }
}

// WithTimeout bounds a single sweep.
func WithTimeout(d time.Duration) Option {
	return func(s *OverdueSweeper) { s.timeout = d }
}

// NewOverdueSweeper registers the sweep under spec, a standard five-field
// cron expression evaluated in timezone (UTC when empty).
func NewOverdueSweeper(spec, timezone string, marker OverdueMarker, logger *slog.Logger, opts ...Option) (*OverdueSweeper, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	s := &OverdueSweeper{
		marker:  marker,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{logger}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule overdue sweep %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce sweeps as of the current date in the sweeper's timezone.
func (s *OverdueSweeper) RunOnce(ctx context.Context) dto.MarkOverdueResponse {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	asOf := civil.DateOf(s.now().In(s.loc))
	resp, err := s.marker.Execute(ctx, dto.MarkOverdueRequest{AsOf: asOf})
	if err != nil {
		s.logger.ErrorContext(ctx, "overdue sweep failed", "as_of", asOf.String(), "error", err)
		return resp
	}
	s.logger.InfoContext(ctx, "overdue sweep finished",
		"as_of", asOf.String(),
		"checked", resp.Checked,
		"marked_late", resp.MarkedLate,
		"failed", resp.Failed,
	)
	return resp
}

// Start begins running the schedule in the background.
func (s *OverdueSweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep until ctx expires.
func (s *OverdueSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
