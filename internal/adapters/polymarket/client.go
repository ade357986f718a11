package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultLimit     = 200

	// Gamma /markets: 300/10s → al 60% → 18/s
	gammaRatePerSec = 18
)

// Client es el HTTP client de la Gamma API de Polymarket, con rate limiting.
// No reintenta: un fallo se reporta al scanner y el siguiente ciclo vuelve a pedir.
type Client struct {
	http         *http.Client
	gammaBase    string
	limit        int
	gammaLimiter *rate.Limiter
}

// NewClient crea un Client contra gammaBase, pidiendo hasta limit mercados por scan.
// Si gammaBase está vacío usa el URL de producción; limit <= 0 usa el default.
func NewClient(gammaBase string, limit int) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		gammaBase:    gammaBase,
		limit:        limit,
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
	}
}

// get hace un GET con rate limiting y decodifica el JSON en out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.gammaLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		slog.Warn("rate limited by API", "url", url)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
