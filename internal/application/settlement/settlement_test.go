package settlement_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polypaper/internal/application/settlement"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPosition(entry, size float64) domain.Position {
	p := domain.NewPosition(domain.Quote{
		Platform: domain.PlatformPolymarket,
		MarketID: "0xabc",
		Price:    entry,
	}, size, time.Now().UTC())
	p.ID = 1
	return p
}

func newSettler(t *testing.T, fee float64) *settlement.Settler {
	t.Helper()
	s, err := settlement.New(settlement.Config{FeeRate: fee})
	require.NoError(t, err)
	return s
}

func TestSettle_WonScenario(t *testing.T) {
	s := newSettler(t, 0.02)
	pos := openPosition(0.978, 100)
	closedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	closed, err := s.Settle(pos, 0.99, domain.PositionWon, closedAt)
	require.NoError(t, err)

	// gross = 100 × (0.99/0.978 − 1) = 1.22699...
	r := s.Compute(pos, 0.99, domain.PositionWon)
	assert.InDelta(t, 1.2269938, r.GrossPnL, 1e-6)
	assert.InDelta(t, 0.0245399, r.Fee, 1e-6)
	assert.InDelta(t, 1.2024539, r.RealizedPnL, 1e-6)

	assert.Equal(t, domain.PositionWon, closed.Status)
	assert.Equal(t, 0.99, closed.ExitPrice)
	assert.Equal(t, 0.99, closed.CurrentPrice)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, closedAt, *closed.ClosedAt)
	assert.InDelta(t, r.Fee, closed.FeePaid, 1e-12)
	assert.InDelta(t, r.RealizedPnL, closed.RealizedPnL, 1e-12)
	assert.Equal(t, pos.Shares, closed.Shares, "shares never recomputed")

	// la posición de entrada no se muta
	assert.Equal(t, domain.PositionOpen, pos.Status)
}

func TestSettle_LostNoFee(t *testing.T) {
	s := newSettler(t, 0.02)
	pos := openPosition(0.97, 97) // 100 shares

	closed, err := s.Settle(pos, 0.75, domain.PositionLost, time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.PositionLost, closed.Status)
	assert.Zero(t, closed.FeePaid)
	assert.InDelta(t, -22.0, closed.RealizedPnL, 1e-9)
}

func TestSettle_WonWithNegativeGrossHasNoFee(t *testing.T) {
	s := newSettler(t, 0.02)
	pos := openPosition(0.98, 98)

	r := s.Compute(pos, 0.97, domain.PositionWon)
	assert.Zero(t, r.Fee)
	assert.InDelta(t, r.GrossPnL, r.RealizedPnL, 1e-12)
}

func TestSettle_RealizedIsGrossMinusFee(t *testing.T) {
	s := newSettler(t, 0.035)
	for _, tc := range []struct {
		entry, exit float64
		status      domain.PositionStatus
	}{
		{0.97, 1.00, domain.PositionWon},
		{0.975, 0.995, domain.PositionWon},
		{0.98, 0.10, domain.PositionLost},
		{0.971, 0.799, domain.PositionLost},
	} {
		r := s.Compute(openPosition(tc.entry, 100), tc.exit, tc.status)
		assert.InDelta(t, r.GrossPnL-r.Fee, r.RealizedPnL, 1e-12)
		if tc.status == domain.PositionLost {
			assert.Zero(t, r.Fee)
		} else {
			assert.InDelta(t, 0.035*r.GrossPnL, r.Fee, 1e-12)
		}
	}
}

func TestSettle_RejectsTerminalPosition(t *testing.T) {
	s := newSettler(t, 0.02)
	pos := openPosition(0.97, 100)
	closed, err := s.Settle(pos, 0.99, domain.PositionWon, time.Now())
	require.NoError(t, err)

	_, err = s.Settle(closed, 0.5, domain.PositionLost, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotOpen)
}

func TestSettle_RejectsNonTerminalStatus(t *testing.T) {
	s := newSettler(t, 0.02)
	_, err := s.Settle(openPosition(0.97, 100), 0.98, domain.PositionOpen, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestNew_RejectsFeeOutOfRange(t *testing.T) {
	_, err := settlement.New(settlement.Config{FeeRate: -0.1})
	assert.Error(t, err)
	_, err = settlement.New(settlement.Config{FeeRate: 1.5})
	assert.Error(t, err)
}
