package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const (
	defaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"
	defaultLimit   = 200

	// Kalshi basic tier: 20 lecturas/s → al 60% → 12/s
	readRatePerSec = 12
)

// Client is the read-only REST client for the Kalshi exchange API.
// Requests are signed only when an API key id and RSA key are configured;
// public market data works unsigned.
type Client struct {
	baseURL    string
	limit      int
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient creates a Kalshi client rooted at baseURL (production if empty),
// requesting up to limit markets per scan.
func NewClient(baseURL string, limit int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Client{
		baseURL:    baseURL,
		limit:      limit,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(readRatePerSec, 5),
		now:        time.Now,
	}
}

// SetCredentials configures RSA-PSS request signing from a PEM-encoded key.
// PKCS8 is tried first, then PKCS1.
func (c *Client) SetCredentials(apiKeyID string, pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.apiKeyID = apiKeyID
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.apiKeyID = apiKeyID
	c.privateKey = rsaKey
	return nil
}

// Signed reports whether requests carry authentication headers.
func (c *Client) Signed() bool {
	return c.privateKey != nil && c.apiKeyID != ""
}

// get sends a GET for path (relative to baseURL) and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.Signed() {
		if err := c.signRequest(req); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// signRequest adds the KALSHI-ACCESS-* headers. The signed message is
// timestamp (ms) + method + URL path, with RSA-PSS over SHA-256.
func (c *Client) signRequest(req *http.Request) error {
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	message := ts + req.Method + req.URL.Path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus maps non-2xx HTTP status codes to errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("kalshi: %s (%s): %w", apiErr.Error.Message, apiErr.Error.Code, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("kalshi: unauthorized: %s (%s)", apiErr.Error.Message, apiErr.Error.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("kalshi: rate limited: %s (%s)", apiErr.Error.Message, apiErr.Error.Code)
	default:
		return fmt.Errorf("kalshi: HTTP %d: %s (%s)", statusCode, apiErr.Error.Message, apiErr.Error.Code)
	}
}
