package performance_test

import (
	"testing"

	"github.com/alejandrodnm/polypaper/internal/application/performance"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/stretchr/testify/assert"
)

func closed(platform domain.Platform, status domain.PositionStatus, size, pnl, fee float64) domain.Position {
	return domain.Position{
		Platform:     platform,
		MarketID:     "m",
		Status:       status,
		PositionSize: size,
		RealizedPnL:  pnl,
		FeePaid:      fee,
	}
}

func TestSummarize_EmptyHistory(t *testing.T) {
	p := performance.Summarize(nil)

	assert.Equal(t, 0, p.TotalTrades)
	assert.Zero(t, p.WinRate)
	assert.Zero(t, p.ROI)
	assert.Zero(t, p.AvgProfit)
}

func TestSummarize_Totals(t *testing.T) {
	history := []domain.Position{
		closed(domain.PlatformPolymarket, domain.PositionWon, 100, 1.2, 0.025),
		closed(domain.PlatformPolymarket, domain.PositionWon, 100, 2.0, 0.04),
		closed(domain.PlatformKalshi, domain.PositionLost, 100, -20, 0),
		closed(domain.PlatformKalshi, domain.PositionWon, 100, 1.8, 0.036),
	}

	p := performance.Summarize(history)

	assert.Equal(t, 4, p.TotalTrades)
	assert.Equal(t, 3, p.Wins)
	assert.Equal(t, 1, p.Losses)
	assert.InDelta(t, 0.75, p.WinRate, 1e-12)
	assert.InDelta(t, -15.0, p.TotalPnL, 1e-9)
	assert.InDelta(t, 0.101, p.TotalFees, 1e-9)
	assert.InDelta(t, 400.0, p.TotalInvested, 1e-9)
	assert.InDelta(t, -15.0/400, p.ROI, 1e-12)
	assert.InDelta(t, -3.75, p.AvgProfit, 1e-9)
}

func TestSummarize_IgnoresOpenPositions(t *testing.T) {
	history := []domain.Position{
		closed(domain.PlatformPolymarket, domain.PositionOpen, 100, 0, 0),
		closed(domain.PlatformPolymarket, domain.PositionWon, 100, 1, 0.02),
	}

	p := performance.Summarize(history)
	assert.Equal(t, 1, p.TotalTrades)
	assert.InDelta(t, 100.0, p.TotalInvested, 1e-9)
}

func TestSummarize_Idempotent(t *testing.T) {
	history := []domain.Position{
		closed(domain.PlatformPolymarket, domain.PositionWon, 100, 1.2, 0.025),
		closed(domain.PlatformKalshi, domain.PositionLost, 50, -10, 0),
	}

	first := performance.Summarize(history)
	second := performance.Summarize(history)
	assert.Equal(t, first, second)
}

func TestByPlatform(t *testing.T) {
	history := []domain.Position{
		closed(domain.PlatformPolymarket, domain.PositionWon, 100, 1.2, 0.025),
		closed(domain.PlatformKalshi, domain.PositionLost, 100, -20, 0),
		closed(domain.PlatformKalshi, domain.PositionWon, 100, 1.8, 0.036),
	}

	by := performance.ByPlatform(history)
	assert.Len(t, by, 2)
	assert.Equal(t, 2, by[domain.PlatformKalshi].TotalTrades)
	assert.InDelta(t, 0.5, by[domain.PlatformKalshi].WinRate, 1e-12)
	assert.Equal(t, 1, by[domain.PlatformPolymarket].Wins)
}
