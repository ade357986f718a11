package scanner

import (
	"github.com/alejandrodnm/polypaper/internal/domain"
)

// FilterConfig contiene los parámetros de entrada de la estrategia.
type FilterConfig struct {
	// MinPrice y MaxPrice delimitan la banda de precio YES (inclusiva).
	MinPrice float64
	MaxPrice float64
	// MinLiquidity descarta mercados con poca profundidad (USD).
	MinLiquidity float64
	// MinVolume24h descarta mercados con poco volumen en 24h (USD).
	MinVolume24h float64
}

// DefaultFilterConfig devuelve la banda 97–98c con los mínimos de liquidez y volumen.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinPrice:     0.97,
		MaxPrice:     0.98,
		MinLiquidity: 1000,
		MinVolume24h: 500,
	}
}

// Filter aplica el predicado de entrada sobre las cotizaciones.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply devuelve las cotizaciones que pasan el filtro, en el orden de entrada.
func (f *Filter) Apply(quotes []domain.Quote) []domain.Quote {
	result := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if f.Matches(q) {
			result = append(result, q)
		}
	}
	return result
}

// Matches implementa
// MIN_PRICE ≤ price ≤ MAX_PRICE ∧ liquidity ≥ MIN_LIQUIDITY ∧ volume_24h ≥ MIN_VOLUME_24H.
func (f *Filter) Matches(q domain.Quote) bool {
	if q.Price < f.cfg.MinPrice || q.Price > f.cfg.MaxPrice {
		return false
	}
	if q.Liquidity < f.cfg.MinLiquidity {
		return false
	}
	return q.Volume24h >= f.cfg.MinVolume24h
}
