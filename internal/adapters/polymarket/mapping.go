package polymarket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const marketURLBase = "https://polymarket.com/event/"

var errNoPrice = errors.New("market has no outcome prices")

// mapGammaMarkets convierte los DTOs de Gamma a domain.Quote.
// Mercados cerrados o sin precio YES se descartan.
func mapGammaMarkets(raw []gammaMarket, fetchedAt time.Time) []domain.Quote {
	quotes := make([]domain.Quote, 0, len(raw))
	for _, gm := range raw {
		if gm.Closed || gm.ConditionID == "" {
			continue
		}
		q, err := mapGammaMarket(gm, fetchedAt)
		if err != nil {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// mapGammaMarket convierte un gammaMarket a domain.Quote.
func mapGammaMarket(gm gammaMarket, fetchedAt time.Time) (domain.Quote, error) {
	price, err := yesPrice(gm.OutcomePrices)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("market %s: %w", gm.ConditionID, err)
	}

	q := domain.Quote{
		Platform:  domain.PlatformPolymarket,
		MarketID:  gm.ConditionID,
		Question:  gm.Question,
		Category:  gm.Category,
		Price:     price,
		Volume24h: firstNumber(gm.Volume24h, gm.VolumeNum),
		Liquidity: firstNumber(gm.LiquidityNum, gm.Liquidity),
		EndDate:   parseEndDate(gm.EndDateISO),
		FetchedAt: fetchedAt,
	}
	if gm.Slug != "" {
		q.URL = marketURLBase + gm.Slug
	}
	return q, nil
}

// yesPrice extrae outcomePrices[0]. Acepta tanto el string con el array
// embebido como un array JSON directo.
func yesPrice(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errNoPrice
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return 0, fmt.Errorf("outcomePrices: %w", err)
		}
		raw = json.RawMessage(inner)
	}

	var prices []json.Number
	if err := json.Unmarshal(raw, &prices); err != nil {
		return 0, fmt.Errorf("outcomePrices: %w", err)
	}
	if len(prices) == 0 {
		return 0, errNoPrice
	}
	p, err := prices[0].Float64()
	if err != nil {
		return 0, fmt.Errorf("outcomePrices[0]: %w", err)
	}
	return p, nil
}

// firstNumber devuelve el primer valor parseable y positivo, o 0.
func firstNumber(nums ...json.Number) float64 {
	for _, n := range nums {
		if v, err := n.Float64(); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func parseEndDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// Polymarket usa varios formatos; intentamos los más comunes
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
