package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const gammaMarketsPath = "/markets"

// Platform implementa ports.QuoteSource.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformPolymarket
}

// FetchQuotes obtiene los mercados activos de Gamma y los normaliza a Quote.
func (c *Client) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", fmt.Sprintf("%d", c.limit))

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaBase+gammaMarketsPath+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("polymarket.FetchQuotes: %w", err)
	}

	quotes := mapGammaMarkets(resp, time.Now().UTC())
	slog.Debug("polymarket markets fetched",
		"raw", len(resp),
		"quotes", len(quotes),
	)
	return quotes, nil
}

// FetchQuote obtiene la cotización actual de un único mercado por condition_id.
// Implementa ports.QuoteLookup; se usa para refrescar posiciones abiertas
// cuyo mercado no vino en el scan del ciclo.
func (c *Client) FetchQuote(ctx context.Context, conditionID string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaBase+gammaMarketsPath+"?"+params.Encode(), &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("polymarket.FetchQuote: %w", err)
	}

	for _, gm := range resp {
		if gm.ConditionID != conditionID {
			continue
		}
		q, err := mapGammaMarket(gm, time.Now().UTC())
		if err != nil {
			return domain.Quote{}, fmt.Errorf("polymarket.FetchQuote: %w", err)
		}
		return q, nil
	}
	return domain.Quote{}, fmt.Errorf("polymarket.FetchQuote: %s: %w", conditionID, domain.ErrNotFound)
}
