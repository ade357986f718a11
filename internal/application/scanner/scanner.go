package scanner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
)

// DefaultFetchTimeout es el timeout por source si la config no define otro.
const DefaultFetchTimeout = 15 * time.Second

// Config contiene la configuración del scanner.
type Config struct {
	Filter       FilterConfig
	FetchTimeout time.Duration // timeout por source (0 = DefaultFetchTimeout)
}

// Result es la salida de un scan.
type Result struct {
	Quotes        []domain.Quote // todas las quotes recibidas, sin filtrar
	Opportunities []domain.Opportunity
	Failed        []domain.FetchError
}

// FailedPlatforms devuelve los venues que fallaron en este scan.
func (r Result) FailedPlatforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Platform)
	}
	return out
}

// Scanner filtra y rankea las quotes de todos los sources habilitados.
type Scanner struct {
	cfg     Config
	sources []ports.QuoteSource
	filter  *Filter
}

// New crea un Scanner con los sources inyectados.
func New(cfg Config, sources ...ports.QuoteSource) *Scanner {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Scanner{
		cfg:     cfg,
		sources: sources,
		filter:  NewFilter(cfg.Filter),
	}
}

// Scan hace fetch → filter → rank. Nunca devuelve error: si todos los sources
// fallan el resultado simplemente no tiene oportunidades.
func (s *Scanner) Scan(ctx context.Context) Result {
	start := time.Now()

	quotes, failed := fetchAll(ctx, s.sources, s.cfg.FetchTimeout)
	opps := rank(s.filter.Apply(quotes))

	slog.Debug("scan complete",
		"sources", len(s.sources),
		"failed", len(failed),
		"quotes", len(quotes),
		"opportunities", len(opps),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return Result{Quotes: quotes, Opportunities: opps, Failed: failed}
}

// rank ordena por precio desc, luego platform y market_id asc, y asigna Rank 1..n.
func rank(quotes []domain.Quote) []domain.Opportunity {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if a.Price != b.Price {
			return a.Price > b.Price
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.MarketID < b.MarketID
	})

	opps := make([]domain.Opportunity, len(quotes))
	for i, q := range quotes {
		opps[i] = domain.Opportunity{Quote: q, Rank: i + 1}
	}
	return opps
}
