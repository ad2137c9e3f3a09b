package service

import (
	"context"
	"sync"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/rs/zerolog"
)

// SweepResult reports one sweep
type SweepResult struct {
	AsOf    time.Time `json:"asOf"`
	Updated int64     `json:"updated"`
}

// StatusSweeper periodically persists the overdue status of unpaid contributions
// whose due date has passed. Reads derive status themselves; the sweep only keeps
// the stored column current for direct SQL consumers.
type StatusSweeper struct {
	eventSink
	contributionRepo domain.ContributionRepository
	cal              calendar
	logger           zerolog.Logger
	interval         time.Duration
	stopCh           chan struct{}
	doneCh           chan struct{}
	mu               sync.Mutex
	running          bool
}

// NewStatusSweeper creates a sweeper running every interval
func NewStatusSweeper(contributionRepo domain.ContributionRepository, clk clock.Clock, loc *time.Location, logger zerolog.Logger, interval time.Duration) *StatusSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &StatusSweeper{
		contributionRepo: contributionRepo,
		cal:              newCalendar(clk, loc),
		logger:           logger.With().Str("component", "status_sweeper").Logger(),
		interval:         interval,
	}
}

// Start begins sweeping in the background. A stopped sweeper can be started again.
func (w *StatusSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info().Dur("interval", w.interval).Msg("Starting status sweeper")
	go w.run(ctx, w.stopCh, w.doneCh)
}

// Stop stops the sweeper and waits for the loop to exit
func (w *StatusSweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stop)
	<-done
	w.logger.Info().Msg("Status sweeper stopped")
}

func (w *StatusSweeper) run(ctx context.Context, stop <-chan struct{}, done chan struct{}) {
	defer func() {
		// a loop ended by its context still counts as stopped
		w.mu.Lock()
		if w.doneCh == done {
			w.running = false
		}
		w.mu.Unlock()
		close(done)
	}()

	w.sweepAndLog(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.sweepAndLog(ctx)
		}
	}
}

func (w *StatusSweeper) sweepAndLog(ctx context.Context) {
	start := time.Now()
	result, err := w.Sweep(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Status sweep failed")
		return
	}
	w.logger.Info().
		Int64("updated", result.Updated).
		Dur("elapsed", time.Since(start)).
		Msg("Completed status sweep")
}

// Sweep marks every unpaid contribution due before today as overdue
func (w *StatusSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	today := w.cal.today()
	n, err := w.contributionRepo.MarkOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	result := &SweepResult{AsOf: today, Updated: n}
	if n > 0 {
		w.publishEvent(events.AdminsOnly, events.NewEvent(events.EventTypeOverdueSwept, events.EntityTypeContribution, result))
	}
	return result, nil
}

// IsRunning returns whether the sweeper loop is active
func (w *StatusSweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
