// Package lifecycle owns the set of open positions: it decides entries,
// evaluates exits on fresh prices and commits each cycle's mutations to the
// store as a single atomic batch.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polypaper/internal/application/settlement"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
)

const (
	DefaultPositionSize  = 100
	DefaultMaxPositions  = 10
	DefaultWinThreshold  = 0.99
	DefaultLossThreshold = 0.80
)

// Config holds position sizing and exit settings.
type Config struct {
	PositionSize  float64 // USD staked per position
	MaxPositions  int
	WinThreshold  float64 // price >= this closes as WON
	LossThreshold float64 // price < this closes as LOST
}

// DefaultConfig returns the stock sizing and thresholds.
func DefaultConfig() Config {
	return Config{
		PositionSize:  DefaultPositionSize,
		MaxPositions:  DefaultMaxPositions,
		WinThreshold:  DefaultWinThreshold,
		LossThreshold: DefaultLossThreshold,
	}
}

// Manager stages open/refresh/settle decisions for one cycle and commits them.
// It is driven by a single goroutine; cycles never overlap, so there is no lock.
type Manager struct {
	cfg     Config
	store   ports.PositionStore
	settler *settlement.Settler
	now     func() time.Time

	open    map[domain.MarketKey]domain.Position // committed + staged opens
	pending domain.CycleBatch
}

// New creates a Manager.
func New(cfg Config, store ports.PositionStore, settler *settlement.Settler) *Manager {
	if cfg.PositionSize <= 0 {
		cfg.PositionSize = DefaultPositionSize
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = DefaultMaxPositions
	}
	if cfg.WinThreshold <= 0 {
		cfg.WinThreshold = DefaultWinThreshold
	}
	if cfg.LossThreshold <= 0 {
		cfg.LossThreshold = DefaultLossThreshold
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		settler: settler,
		now:     func() time.Time { return time.Now().UTC() },
		open:    make(map[domain.MarketKey]domain.Position),
	}
}

// WithClock overrides the time source (tests).
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Config returns the manager's settings.
func (m *Manager) Config() Config {
	return m.cfg
}

// Load replaces the in-memory open set with the store's and drops anything staged.
func (m *Manager) Load(ctx context.Context) error {
	positions, err := m.store.ListOpenPositions(ctx)
	if err != nil {
		m.reset()
		return &domain.PersistenceError{Op: "list open", Err: err}
	}

	m.reset()
	for _, p := range positions {
		m.open[p.Key()] = p
	}
	return nil
}

// Open returns the current open view: committed positions plus staged opens,
// minus staged closes. Committed positions come first (by id), then staged ones
// in the order they were opened.
func (m *Manager) Open() []domain.Position {
	out := make([]domain.Position, 0, len(m.open))
	for _, p := range m.open {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.ID == 0) != (b.ID == 0) {
			return a.ID != 0
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.OpenedAt.Before(b.OpenedAt) ||
			(a.OpenedAt.Equal(b.OpenedAt) && a.Key().String() < b.Key().String())
	})
	return out
}

// OpenNew stages a new position for opp. It returns ErrDuplicatePosition when
// the market already has an open position and ErrCapacityReached when
// MaxPositions is hit; both are expected rejections.
func (m *Manager) OpenNew(opp domain.Opportunity) (domain.Position, error) {
	key := opp.Key()
	if _, ok := m.open[key]; ok {
		return domain.Position{}, fmt.Errorf("lifecycle.OpenNew: %s: %w", key, domain.ErrDuplicatePosition)
	}
	if len(m.open) >= m.cfg.MaxPositions {
		return domain.Position{}, fmt.Errorf("lifecycle.OpenNew: %d/%d: %w", len(m.open), m.cfg.MaxPositions, domain.ErrCapacityReached)
	}
	if opp.Price <= 0 {
		return domain.Position{}, fmt.Errorf("lifecycle.OpenNew: %s: non-positive price %v", key, opp.Price)
	}

	pos := domain.NewPosition(opp.Quote, m.cfg.PositionSize, m.now())
	m.open[key] = pos
	m.pending.Opens = append(m.pending.Opens, pos)
	return pos, nil
}

// Refresh records a new price for an open position and closes it if the price
// crossed a threshold. WON is checked first. The latest reading alone decides.
func (m *Manager) Refresh(pos domain.Position, price float64) (domain.Position, error) {
	key := pos.Key()
	current, ok := m.open[key]
	if !ok || current.ID != pos.ID {
		return pos, fmt.Errorf("lifecycle.Refresh: position %d (%s): %w", pos.ID, key, domain.ErrNotOpen)
	}
	if current.ID == 0 {
		return pos, fmt.Errorf("lifecycle.Refresh: %s is staged in this cycle: %w", key, domain.ErrNotOpen)
	}

	var status domain.PositionStatus
	switch {
	case price >= m.cfg.WinThreshold:
		status = domain.PositionWon
	case price < m.cfg.LossThreshold:
		status = domain.PositionLost
	}

	if status == "" {
		current.CurrentPrice = price
		m.open[key] = current
		m.pending.PriceUpdates = append(m.pending.PriceUpdates, domain.PriceUpdate{
			PositionID: current.ID,
			Price:      price,
		})
		return current, nil
	}

	closed, err := m.settler.Settle(current, price, status, m.now())
	if err != nil {
		return pos, fmt.Errorf("lifecycle.Refresh: %w", err)
	}
	delete(m.open, key)
	m.pending.Closes = append(m.pending.Closes, closed)
	return closed, nil
}

// Commit writes everything staged, plus the cycle metadata in batch, through a
// single store call. On success the opened positions carry their store ids.
// On failure nothing staged is kept: the open set is cleared and must be
// reloaded, so memory never claims a position the store did not confirm.
func (m *Manager) Commit(ctx context.Context, batch domain.CycleBatch) (domain.CycleBatch, error) {
	batch.Opens = m.pending.Opens
	batch.PriceUpdates = m.pending.PriceUpdates
	batch.Closes = m.pending.Closes

	ids, err := m.store.ApplyCycle(ctx, batch)
	if err != nil {
		slog.Error("cycle commit failed, discarding staged mutations",
			"cycle", batch.ID,
			"opens", len(batch.Opens),
			"closes", len(batch.Closes),
			"err", err,
		)
		m.reset()
		return domain.CycleBatch{}, &domain.PersistenceError{Op: "apply cycle", Err: err}
	}
	if len(ids) != len(batch.Opens) {
		m.reset()
		return domain.CycleBatch{}, &domain.PersistenceError{
			Op:  "apply cycle",
			Err: fmt.Errorf("store returned %d ids for %d opens", len(ids), len(batch.Opens)),
		}
	}

	opens := make([]domain.Position, len(batch.Opens))
	for i, p := range batch.Opens {
		p.ID = ids[i]
		opens[i] = p
		m.open[p.Key()] = p
	}
	batch.Opens = opens
	m.pending = domain.CycleBatch{}
	return batch, nil
}

func (m *Manager) reset() {
	m.open = make(map[domain.MarketKey]domain.Position)
	m.pending = domain.CycleBatch{}
}
