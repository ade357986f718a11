package domain

import "time"

// Platform identifica el venue de donde proviene una cotización.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// MarketKey es la identidad de un mercado entre venues: (platform, market_id).
type MarketKey struct {
	Platform Platform
	MarketID string
}

func (k MarketKey) String() string {
	return string(k.Platform) + ":" + k.MarketID
}

// Quote es el snapshot normalizado de un mercado en un venue.
// Lo producen los adapters en cada ciclo; no se persiste directamente.
type Quote struct {
	Platform  Platform
	MarketID  string // condition_id en Polymarket, ticker en Kalshi
	Question  string
	Category  string
	URL       string
	Price     float64 // precio YES en [0,1]
	Volume24h float64 // USD
	Liquidity float64 // USD (open interest en Kalshi)
	EndDate   time.Time
	FetchedAt time.Time
}

// Key devuelve la identidad (platform, market_id) de la cotización.
func (q Quote) Key() MarketKey {
	return MarketKey{Platform: q.Platform, MarketID: q.MarketID}
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa el marketID como fallback.
// Corta por runas, no por bytes, para no partir caracteres UTF-8.
func TruncateQuestion(question, marketID string, maxLen int) string {
	if question == "" {
		return truncateRunes(marketID, 23)
	}
	return truncateRunes(question, maxLen)
}

func truncateRunes(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
