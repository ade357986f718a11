// Package synthetic provides deterministic, seeded market sources for demo
// runs and tests. Each source holds a fixed catalogue of markets (most of
// them inside the 97-98c band) and advances a random walk on every scan
// after the first, with occasional resolution jumps and collapses.
package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

type seedMarket struct {
	question  string
	category  string
	basePrice float64
}

// Source is a synthetic ports.QuoteSource / ports.QuoteLookup.
// Safe for concurrent use.
type Source struct {
	platform domain.Platform
	now      func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	quotes  []domain.Quote
	fetched bool
}

// NewPolymarket builds the synthetic Polymarket catalogue for seed.
func NewPolymarket(seed uint64) *Source {
	s := newSource(domain.PlatformPolymarket, seed)
	for i, m := range polymarketCatalogue {
		price := clamp(m.basePrice+s.uniform(-0.01, 0.01), 0.01, 0.99)
		s.quotes = append(s.quotes, domain.Quote{
			Platform:  domain.PlatformPolymarket,
			MarketID:  fmt.Sprintf("demo_%d", i),
			Question:  m.question,
			Category:  m.category,
			Price:     price,
			Volume24h: s.uniform(500, 50000),
			Liquidity: s.uniform(1000, 100000),
			EndDate:   s.endDate(),
		})
	}
	return s
}

// NewKalshi builds the synthetic Kalshi catalogue for seed.
// Base prices are in cents, as Kalshi quotes them.
func NewKalshi(seed uint64) *Source {
	s := newSource(domain.PlatformKalshi, seed)
	for i, m := range kalshiCatalogue {
		cents := clamp(m.basePrice+s.uniform(-1, 1), 1, 99)
		ticker := fmt.Sprintf("KALSHI-%03d", i)
		s.quotes = append(s.quotes, domain.Quote{
			Platform:  domain.PlatformKalshi,
			MarketID:  ticker,
			Question:  m.question,
			Category:  m.category,
			URL:       "https://kalshi.com/markets/" + ticker,
			Price:     cents / 100, // mid of bid = cents-1, ask = cents+1
			Volume24h: s.uniform(10000, 500000),
			Liquidity: s.uniform(5000, 100000),
			EndDate:   s.endDate(),
		})
	}
	return s
}

func newSource(p domain.Platform, seed uint64) *Source {
	return &Source{
		platform: p,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(seed, uint64(len(p)))),
	}
}

// WithClock overrides the timestamp source used for FetchedAt.
func (s *Source) WithClock(now func() time.Time) *Source {
	s.now = now
	return s
}

// Platform implements ports.QuoteSource.
func (s *Source) Platform() domain.Platform {
	return s.platform
}

// FetchQuotes returns the whole catalogue. Every call after the first
// advances each market one step of the price walk.
func (s *Source) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetched {
		for i := range s.quotes {
			s.quotes[i].Price = s.step(s.quotes[i].Price)
		}
	}
	s.fetched = true

	now := s.now().UTC()
	out := make([]domain.Quote, len(s.quotes))
	for i, q := range s.quotes {
		q.FetchedAt = now
		out[i] = q
	}
	return out, nil
}

// FetchQuote returns the current quote for one market without advancing the walk.
func (s *Source) FetchQuote(ctx context.Context, marketID string) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.quotes {
		if q.MarketID == marketID {
			q.FetchedAt = s.now().UTC()
			return q, nil
		}
	}
	return domain.Quote{}, fmt.Errorf("synthetic.FetchQuote: %s %s: %w", s.platform, marketID, domain.ErrNotFound)
}

// step is one move of the walk: drift in [-0.02, +0.03], clamped to [0.01, 1.00].
// Above 0.98 there is a 10% chance of resolving at 1.00; below 0.85 a 5%
// chance of collapsing into [0.01, 0.20].
func (s *Source) step(price float64) float64 {
	p := clamp(price+s.uniform(-0.02, 0.03), 0.01, 1.00)
	if p > 0.98 && s.rng.Float64() < 0.10 {
		p = 1.00
	}
	if p < 0.85 && s.rng.Float64() < 0.05 {
		p = s.uniform(0.01, 0.20)
	}
	return p
}

func (s *Source) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Source) endDate() time.Time {
	days := 1 + s.rng.IntN(30)
	return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, days)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
