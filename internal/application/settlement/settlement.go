package settlement

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the platform fee charged on the profit of a winning trade.
const DefaultFeeRate = 0.02

// Config holds settlement settings.
type Config struct {
	FeeRate float64 // fraction of positive gross P&L charged on WON closes
}

// Settler converts a position's price movement into realized P&L.
type Settler struct {
	feeRate decimal.Decimal
}

// New creates a Settler. FeeRate must be in [0, 1].
func New(cfg Config) (*Settler, error) {
	if cfg.FeeRate < 0 || cfg.FeeRate > 1 {
		return nil, fmt.Errorf("settlement.New: fee rate %v out of [0,1]", cfg.FeeRate)
	}
	return &Settler{feeRate: decimal.NewFromFloat(cfg.FeeRate)}, nil
}

// Result is the breakdown of a settlement.
type Result struct {
	GrossPnL    float64
	Fee         float64
	RealizedPnL float64
}

// Compute returns gross, fee and realized P&L for closing pos at exitPrice.
//
//	gross    = shares × (exit − entry)
//	fee      = feeRate × max(gross, 0)   only when WON
//	realized = gross − fee
func (s *Settler) Compute(pos domain.Position, exitPrice float64, status domain.PositionStatus) Result {
	shares := decimal.NewFromFloat(pos.Shares)
	move := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(pos.EntryPrice))
	gross := shares.Mul(move)

	fee := decimal.Zero
	if status == domain.PositionWon && gross.IsPositive() {
		fee = s.feeRate.Mul(gross)
	}
	realized := gross.Sub(fee)

	return Result{
		GrossPnL:    gross.InexactFloat64(),
		Fee:         fee.InexactFloat64(),
		RealizedPnL: realized.InexactFloat64(),
	}
}

// Settle returns pos closed at exitPrice with every terminal field set together.
// pos must be OPEN and status must be WON or LOST.
func (s *Settler) Settle(pos domain.Position, exitPrice float64, status domain.PositionStatus, closedAt time.Time) (domain.Position, error) {
	if !pos.IsOpen() {
		return pos, fmt.Errorf("settlement.Settle: position %d is %s: %w", pos.ID, pos.Status, domain.ErrNotOpen)
	}
	if !status.IsTerminal() {
		return pos, fmt.Errorf("settlement.Settle: %q: %w", status, domain.ErrInvalidStatus)
	}

	r := s.Compute(pos, exitPrice, status)

	closed := pos
	closed.Status = status
	closed.CurrentPrice = exitPrice
	closed.ExitPrice = exitPrice
	closed.ClosedAt = &closedAt
	closed.RealizedPnL = r.RealizedPnL
	closed.FeePaid = r.Fee
	return closed, nil
}
