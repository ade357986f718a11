package kalshi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const marketURLBase = "https://kalshi.com/markets/"

var errNoPrice = errors.New("market has no yes bid/ask")

// Platform implements ports.QuoteSource.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformKalshi
}

// FetchQuotes returns one page of open markets normalized to Quote.
func (c *Client) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", strconv.Itoa(c.limit))

	var resp marketsResponse
	if err := c.get(ctx, "/markets?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("kalshi.FetchQuotes: %w", err)
	}

	now := time.Now().UTC()
	quotes := make([]domain.Quote, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		if m.Ticker == "" || (m.Status != "" && m.Status != "open" && m.Status != "active") {
			continue
		}
		q, err := toQuote(m, now)
		if err != nil {
			slog.Debug("kalshi: skipping market", "ticker", m.Ticker, "err", err)
			continue
		}
		quotes = append(quotes, q)
	}

	slog.Debug("kalshi markets fetched",
		"raw", len(resp.Markets),
		"quotes", len(quotes),
		"signed", c.Signed(),
	)
	return quotes, nil
}

// FetchQuote implements ports.QuoteLookup for a single ticker. Settled
// markets are returned too, so open positions can observe their resolution.
// An unsettled market with an empty book returns an error: it has no price.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	var resp marketResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker), &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("kalshi.FetchQuote: %s: %w", ticker, err)
	}
	if resp.Market.Ticker == "" {
		return domain.Quote{}, fmt.Errorf("kalshi.FetchQuote: %s: %w", ticker, domain.ErrNotFound)
	}
	q, err := toQuote(resp.Market, time.Now().UTC())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("kalshi.FetchQuote: %w", err)
	}
	return q, nil
}

func toQuote(m market, fetchedAt time.Time) (domain.Quote, error) {
	price, err := yesPrice(m)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%s: %w", m.Ticker, err)
	}

	volume := float64(m.Volume24H)
	if volume == 0 {
		volume = float64(m.Volume)
	}
	q := domain.Quote{
		Platform:  domain.PlatformKalshi,
		MarketID:  m.Ticker,
		Question:  m.Title,
		Category:  m.Category,
		URL:       marketURLBase + m.Ticker,
		Price:     price,
		Volume24h: volume,
		Liquidity: float64(m.OpenInterest),
		FetchedAt: fetchedAt,
	}
	if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
		q.EndDate = t.UTC()
	}
	return q, nil
}

// yesPrice is the bid/ask mid in dollars, or the bid alone when there is no ask.
// A settled market reports its result directly.
func yesPrice(m market) (float64, error) {
	switch m.Result {
	case "yes":
		return 1, nil
	case "no":
		return 0, nil
	}
	bid := m.YesBid / 100
	ask := m.YesAsk / 100
	if bid <= 0 && ask <= 0 {
		return 0, errNoPrice
	}
	if ask > 0 {
		return (bid + ask) / 2, nil
	}
	return bid, nil
}
