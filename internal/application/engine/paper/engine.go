package paper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polypaper/internal/application/engine"
	"github.com/alejandrodnm/polypaper/internal/application/lifecycle"
	"github.com/alejandrodnm/polypaper/internal/application/performance"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
)

const (
	DefaultInterval = 60 * time.Second
	lookupTimeout   = 10 * time.Second
)

// Config holds the loop settings of the paper engine.
type Config struct {
	Interval time.Duration // time between cycles in Run
	StopFile string        // Run exits when this file appears ("" disables)
}

// Engine runs scan cycles against the position lifecycle.
type Engine struct {
	scanner   engine.QuoteScanner
	positions *lifecycle.Manager
	store     ports.PositionStore
	notifier  ports.Notifier
	lookups   map[domain.Platform]ports.QuoteLookup
	cfg       Config
	now       func() time.Time
}

// New creates a paper trading engine. notifier may be nil.
func New(
	cfg Config,
	scanner engine.QuoteScanner,
	positions *lifecycle.Manager,
	store ports.PositionStore,
	notifier ports.Notifier,
) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Engine{
		scanner:   scanner,
		positions: positions,
		store:     store,
		notifier:  notifier,
		lookups:   make(map[domain.Platform]ports.QuoteLookup),
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithLookups registers per-market lookups for every source that supports them.
// They are used to refresh open positions whose market was not in the scan.
func (e *Engine) WithLookups(sources ...ports.QuoteSource) *Engine {
	for _, s := range sources {
		if l, ok := s.(ports.QuoteLookup); ok {
			e.lookups[s.Platform()] = l
		}
	}
	return e
}

// WithClock overrides the clock used for cycle timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RunOnce executes a single cycle: scan, refresh every open position, open new
// positions in rank order, then commit everything in one store call.
// Only a store failure is returned as an error.
func (e *Engine) RunOnce(ctx context.Context) (*domain.CycleReport, error) {
	start := e.now().UTC()

	res := e.scanner.Scan(ctx)
	report := &domain.CycleReport{
		CycleID:       uuid.NewString(),
		StartedAt:     start,
		Quotes:        len(res.Quotes),
		Opportunities: res.Opportunities,
		FailedSources: res.FailedPlatforms(),
	}

	if err := e.positions.Load(ctx); err != nil {
		return nil, err
	}

	e.refreshOpen(ctx, res.Quotes, report)
	e.openNew(res.Opportunities)

	committed, err := e.positions.Commit(ctx, domain.CycleBatch{
		ID:            report.CycleID,
		StartedAt:     start,
		Quotes:        report.Quotes,
		Opportunities: res.Opportunities,
		FailedSources: report.FailedSources,
	})
	if err != nil {
		return nil, err
	}

	report.Opened = committed.Opens
	report.Closed = committed.Closes
	report.OpenPositions = e.positions.Open()
	report.Duration = e.now().UTC().Sub(start)

	slog.Info("paper cycle complete",
		"cycle", report.CycleID,
		"quotes", report.Quotes,
		"opportunities", len(report.Opportunities),
		"opened", len(report.Opened),
		"closed", len(report.Closed),
		"refreshed", report.Refreshed,
		"skipped", report.Skipped,
		"open", len(report.OpenPositions),
		"failed_sources", len(report.FailedSources),
	)
	return report, nil
}

// refreshOpen feeds each committed open position its fresh price. Positions
// with no quote this cycle are skipped, never closed.
func (e *Engine) refreshOpen(ctx context.Context, quotes []domain.Quote, report *domain.CycleReport) {
	index := make(map[domain.MarketKey]domain.Quote, len(quotes))
	for _, q := range quotes {
		index[q.Key()] = q
	}
	failed := make(map[domain.Platform]bool, len(report.FailedSources))
	for _, p := range report.FailedSources {
		failed[p] = true
	}

	for _, pos := range e.positions.Open() {
		q, ok := index[pos.Key()]
		if !ok && !failed[pos.Platform] {
			q, ok = e.lookup(ctx, pos)
		}
		if !ok {
			report.Skipped++
			slog.Debug("paper: no fresh quote, position skipped", "id", pos.ID, "market", pos.Key())
			continue
		}

		updated, err := e.positions.Refresh(pos, q.Price)
		if err != nil {
			slog.Warn("paper: refresh failed", "id", pos.ID, "market", pos.Key(), "err", err)
			continue
		}
		if updated.Status.IsTerminal() {
			slog.Info("paper: position closed",
				"id", updated.ID,
				"market", updated.Key(),
				"status", updated.Status,
				"entry", updated.EntryPrice,
				"exit", updated.ExitPrice,
				"pnl", updated.RealizedPnL,
				"fee", updated.FeePaid,
			)
			continue
		}
		report.Refreshed++
	}
}

// lookup asks the platform adapter for a single market.
func (e *Engine) lookup(ctx context.Context, pos domain.Position) (domain.Quote, bool) {
	l, ok := e.lookups[pos.Platform]
	if !ok {
		return domain.Quote{}, false
	}

	lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	q, err := l.FetchQuote(lctx, pos.MarketID)
	if err != nil {
		slog.Debug("paper: market lookup failed", "market", pos.Key(), "err", err)
		return domain.Quote{}, false
	}
	return q, true
}

// openNew offers every opportunity in rank order. Duplicates and capacity
// rejections are expected and only logged at debug.
func (e *Engine) openNew(opps []domain.Opportunity) {
	for _, opp := range opps {
		pos, err := e.positions.OpenNew(opp)
		if err != nil {
			if errors.Is(err, domain.ErrCapacityReached) {
				slog.Debug("paper: max open positions reached", "max", e.positions.Config().MaxPositions)
				return
			}
			if domain.IsCapacityError(err) {
				slog.Debug("paper: opportunity skipped", "market", opp.Key(), "reason", err)
				continue
			}
			slog.Warn("paper: cannot open position", "market", opp.Key(), "err", err)
			continue
		}
		slog.Debug("paper: position staged",
			"market", pos.Key(),
			"rank", opp.Rank,
			"entry", pos.EntryPrice,
			"shares", pos.Shares,
		)
	}
}

// Run executes one cycle immediately and then one per Interval until ctx is
// cancelled or the stop file appears. Cycle failures are logged and the loop goes on.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	slog.Info("paper trading started", "interval", e.cfg.Interval, "stop_file", e.cfg.StopFile)
	e.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("paper trading stopped (signal)")
			return nil
		case <-ticker.C:
			if e.stopRequested() {
				slog.Info("STOP file detected, shutting down paper trading")
				return nil
			}
			e.cycle(ctx)
		}
	}
}

func (e *Engine) cycle(ctx context.Context) {
	report, err := e.RunOnce(ctx)
	if err != nil {
		slog.Error("paper cycle failed", "err", err)
		return
	}
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyCycle(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func (e *Engine) stopRequested() bool {
	if e.cfg.StopFile == "" {
		return false
	}
	if _, err := os.Stat(e.cfg.StopFile); err != nil {
		return false
	}
	os.Remove(e.cfg.StopFile)
	return true
}

// SummarizePerformance aggregates the whole closed-position history.
func (e *Engine) SummarizePerformance(ctx context.Context) (domain.Performance, error) {
	closed, err := e.store.ListClosedPositions(ctx)
	if err != nil {
		return domain.Performance{}, &domain.PersistenceError{Op: "list closed", Err: err}
	}
	return performance.Summarize(closed), nil
}

// PerformanceByPlatform is SummarizePerformance split per venue.
func (e *Engine) PerformanceByPlatform(ctx context.Context) (map[domain.Platform]domain.Performance, error) {
	closed, err := e.store.ListClosedPositions(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list closed", Err: err}
	}
	return performance.ByPlatform(closed), nil
}

// OpenPositions returns the persisted open positions.
func (e *Engine) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	open, err := e.store.ListOpenPositions(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list open", Err: err}
	}
	return open, nil
}

// ClosedPositions returns the persisted closed positions in closing order.
func (e *Engine) ClosedPositions(ctx context.Context) ([]domain.Position, error) {
	closed, err := e.store.ListClosedPositions(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list closed", Err: err}
	}
	return closed, nil
}

// RecentCycles returns the last n cycle summaries, newest first.
func (e *Engine) RecentCycles(ctx context.Context, n int) ([]domain.CycleRecord, error) {
	cycles, err := e.store.RecentCycles(ctx, n)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "recent cycles", Err: err}
	}
	return cycles, nil
}
