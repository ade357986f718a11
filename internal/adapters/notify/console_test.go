package notify_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeOpp(rank int, question string, price float64) domain.Opportunity {
	return domain.Opportunity{
		Quote: domain.Quote{
			Platform:  domain.PlatformPolymarket,
			MarketID:  fmt.Sprintf("0x%03d", rank),
			Question:  question,
			Category:  "Crypto",
			Price:     price,
			Volume24h: 5000,
			Liquidity: 20000,
		},
		Rank: rank,
	}
}

func makeClosed(id int64, status domain.PositionStatus, pnl, fee float64) domain.Position {
	at := t0.Add(2 * time.Hour)
	p := domain.NewPosition(domain.Quote{
		Platform: domain.PlatformKalshi, MarketID: "KX-1", Question: "Fed holds?", Price: 0.975,
	}, 100, t0)
	p.ID = id
	p.Status = status
	p.ExitPrice = 0.99
	p.ClosedAt = &at
	p.RealizedPnL = pnl
	p.FeePaid = fee
	return p
}

func TestConsole_NotifyCycle_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.NotifyCycle(context.Background(), &domain.CycleReport{
		CycleID:       "0123456789abcdef",
		StartedAt:     t0,
		Quotes:        27,
		Opportunities: []domain.Opportunity{makeOpp(1, "Will ETH reach $4000?", 0.979)},
		Closed:        []domain.Position{makeClosed(3, domain.PositionWon, 1.2024, 0.0245)},
		FailedSources: []domain.Platform{domain.PlatformKalshi},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "Will ETH reach $4000?")
	assert.Contains(t, out, "0.9790")
	assert.Contains(t, out, "WON")
	assert.Contains(t, out, "+1.2024")
	assert.Contains(t, out, "sources failed: kalshi")
}

func TestConsole_NotifyCycle_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.NotifyCycle(context.Background(), &domain.CycleReport{
		StartedAt: t0,
		Quotes:    10,
		Closed:    []domain.Position{makeClosed(1, domain.PositionLost, -20, 0)},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "10 quotes")
	assert.Contains(t, out, "pnl $-20.0000")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestConsole_NotifyCycle_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, true).NotifyCycle(context.Background(), nil))
	assert.Empty(t, buf.String())
}

func TestConsole_PrintOpportunities_CapsRows(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	var opps []domain.Opportunity
	for i := 1; i <= 25; i++ {
		opps = append(opps, makeOpp(i, fmt.Sprintf("Market number %d", i), 0.975))
	}
	n.PrintOpportunities(opps)

	out := buf.String()
	assert.Contains(t, out, "Market number 20")
	assert.NotContains(t, out, "Market number 21")
	assert.Contains(t, out, "and 5 more")
}

func TestConsole_PrintOpportunities_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintOpportunities(nil)
	assert.Contains(t, buf.String(), "No opportunities found")
}

func TestConsole_PrintOpenPositions(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	p := domain.NewPosition(domain.Quote{
		Platform: domain.PlatformPolymarket, MarketID: "0xabc", Question: "Will it rain?", Price: 0.97,
	}, 100, time.Now().Add(-3*time.Hour))
	p.ID = 7
	p.CurrentPrice = 0.98

	n.PrintOpenPositions([]domain.Position{p})

	out := buf.String()
	assert.Contains(t, out, "OPEN POSITIONS (1)")
	assert.Contains(t, out, "Will it rain?")
	assert.Contains(t, out, "+1.0309")
	assert.Contains(t, out, "Invested: $100.00")
}

func TestConsole_PrintPerformance(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	total := domain.Performance{
		TotalTrades: 3, Wins: 2, Losses: 1, WinRate: 2.0 / 3,
		TotalPnL: -17.5, TotalFees: 0.05, TotalInvested: 300, ROI: -17.5 / 300, AvgProfit: -17.5 / 3,
	}
	byPlatform := map[domain.Platform]domain.Performance{
		domain.PlatformKalshi:     {TotalTrades: 1, Wins: 1},
		domain.PlatformPolymarket: {TotalTrades: 2, Wins: 1, Losses: 1},
	}
	n.PrintPerformance(total, byPlatform, 0.02)

	out := buf.String()
	assert.Contains(t, out, "fee: 2.0%")
	assert.Contains(t, out, "Wins / Losses:    2 / 1")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "BY PLATFORM")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("kalshi")), bytes.Index(buf.Bytes(), []byte("polymarket")))
}

func TestConsole_PrintPerformance_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintPerformance(domain.Performance{}, nil, 0.02)
	assert.Contains(t, buf.String(), "No closed positions yet")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintHistory(
		[]domain.Position{makeClosed(1, domain.PositionWon, 1.2, 0.02)},
		[]domain.CycleRecord{{ID: "abcdef0123", StartedAt: t0, Quotes: 27, Opportunities: 20, Opened: 10}},
	)

	out := buf.String()
	assert.Contains(t, out, "CLOSED POSITIONS (1)")
	assert.Contains(t, out, "Fed holds?")
	assert.Contains(t, out, "RECENT CYCLES (1)")
	assert.Contains(t, out, "abcdef01")
}
