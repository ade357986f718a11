package domain

import "time"

// PositionStatus represents the lifecycle of a simulated position.
// OPEN is the only non-terminal state.
type PositionStatus string

const (
	PositionOpen PositionStatus = "OPEN"
	PositionWon  PositionStatus = "WON"
	PositionLost PositionStatus = "LOST"
)

// IsTerminal reports whether the status is WON or LOST.
func (s PositionStatus) IsTerminal() bool {
	return s == PositionWon || s == PositionLost
}

// Valid reports whether s is one of the known statuses.
func (s PositionStatus) Valid() bool {
	return s == PositionOpen || s.IsTerminal()
}

// Position is a simulated stake opened against an Opportunity.
type Position struct {
	ID           int64 // assigned by the store; 0 while staged
	Platform     Platform
	MarketID     string
	Question     string
	Category     string
	EntryPrice   float64
	PositionSize float64 // USD staked
	Shares       float64 // PositionSize / EntryPrice, fixed at open
	Status       PositionStatus
	OpenedAt     time.Time
	CurrentPrice float64

	// Only set once the position is closed.
	ExitPrice   float64
	ClosedAt    *time.Time
	RealizedPnL float64
	FeePaid     float64
}

// NewPosition builds an OPEN position for the given quote and stake.
func NewPosition(q Quote, size float64, openedAt time.Time) Position {
	return Position{
		Platform:     q.Platform,
		MarketID:     q.MarketID,
		Question:     q.Question,
		Category:     q.Category,
		EntryPrice:   q.Price,
		PositionSize: size,
		Shares:       size / q.Price,
		Status:       PositionOpen,
		OpenedAt:     openedAt,
		CurrentPrice: q.Price,
	}
}

// Key returns the (platform, market_id) identity of the position's market.
func (p Position) Key() MarketKey {
	return MarketKey{Platform: p.Platform, MarketID: p.MarketID}
}

// IsOpen reports whether the position is still OPEN.
func (p Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// UnrealizedPnL returns the mark-to-market P&L at CurrentPrice, before fees.
func (p Position) UnrealizedPnL() float64 {
	return p.Shares * (p.CurrentPrice - p.EntryPrice)
}

// HoldDuration returns how long the position was (or has been) open.
func (p Position) HoldDuration(now time.Time) time.Duration {
	if p.ClosedAt != nil {
		return p.ClosedAt.Sub(p.OpenedAt)
	}
	return now.Sub(p.OpenedAt)
}
