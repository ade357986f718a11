package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsFixture = `{
	"cursor": "",
	"markets": [
		{"ticker": "KXFED-26MAR-H0", "title": "Fed holds in March?", "category": "Economics",
		 "status": "active", "yes_bid": 97, "yes_ask": 98, "volume_24h": 12000, "volume": 800000,
		 "open_interest": 45000, "close_time": "2026-03-20T18:00:00Z"},
		{"ticker": "KXSNOW-MIA", "title": "Snow in Miami?", "status": "active",
		 "yes_bid": 3, "yes_ask": 0, "volume": 1500, "open_interest": 200},
		{"ticker": "KXEMPTY", "title": "Empty book", "status": "active",
		 "yes_bid": 0, "yes_ask": 0, "volume": 900, "open_interest": 50},
		{"ticker": "KXOLD", "title": "Settled", "status": "settled", "result": "yes"}
	]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/trade-api/v2", 100)
}

func TestFetchQuotes_Normalizes(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("KALSHI-ACCESS-KEY"), "sin credenciales no se firma")
		w.Write([]byte(marketsFixture))
	})

	quotes, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	q := quotes[0]
	assert.Equal(t, domain.PlatformKalshi, q.Platform)
	assert.Equal(t, "KXFED-26MAR-H0", q.MarketID)
	assert.Equal(t, "Fed holds in March?", q.Question)
	assert.Equal(t, "https://kalshi.com/markets/KXFED-26MAR-H0", q.URL)
	assert.InDelta(t, 0.975, q.Price, 1e-9)
	assert.InDelta(t, 12000, q.Volume24h, 1e-9)
	assert.InDelta(t, 45000, q.Liquidity, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 20, 18, 0, 0, 0, time.UTC), q.EndDate)

	// Sin ask: precio = bid. Sin volume_24h: fallback a volume.
	q = quotes[1]
	assert.InDelta(t, 0.03, q.Price, 1e-9)
	assert.InDelta(t, 1500, q.Volume24h, 1e-9)
}

func TestFetchQuotes_HTTPError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":"unavailable","message":"maintenance"}}`))
	})

	_, err := c.FetchQuotes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestFetchQuote_Settled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/markets/KXOLD", r.URL.Path)
		w.Write([]byte(`{"market":{"ticker":"KXOLD","title":"Settled","status":"settled","result":"no","yes_bid":1}}`))
	})

	q, err := c.FetchQuote(context.Background(), "KXOLD")
	require.NoError(t, err)
	assert.Equal(t, "KXOLD", q.MarketID)
	assert.InDelta(t, 0.0, q.Price, 1e-9)
}

func TestFetchQuote_ClosedWithEmptyBook(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"market":{"ticker":"KX1","title":"Awaiting result","status":"closed","yes_bid":0,"yes_ask":0,"result":""}}`))
	})

	_, err := c.FetchQuote(context.Background(), "KX1")
	require.ErrorIs(t, err, errNoPrice)
}

func TestYesPrice(t *testing.T) {
	tests := []struct {
		name    string
		m       market
		want    float64
		wantErr bool
	}{
		{"mid", market{YesBid: 97, YesAsk: 98}, 0.975, false},
		{"bid only", market{YesBid: 3}, 0.03, false},
		{"settled yes", market{Result: "yes"}, 1, false},
		{"settled no", market{Result: "no", YesBid: 40}, 0, false},
		{"empty book", market{Status: "closed"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := yesPrice(tt.m)
			if tt.wantErr {
				require.ErrorIs(t, err, errNoPrice)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFetchQuote_NotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"not_found","message":"market not found"}}`))
	})

	_, err := c.FetchQuote(context.Background(), "NOPE")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetCredentials_SignsRequests(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	fixed := time.UnixMilli(1767225600123)
	var gotKey, gotSig, gotTS, gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("KALSHI-ACCESS-KEY")
		gotSig = r.Header.Get("KALSHI-ACCESS-SIGNATURE")
		gotTS = r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
		gotPath = r.URL.Path
		w.Write([]byte(`{"markets":[]}`))
	})
	c.now = func() time.Time { return fixed }

	require.NoError(t, c.SetCredentials("key-123", pemBytes))
	require.True(t, c.Signed())

	_, err = c.FetchQuotes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "1767225600123", gotTS)

	sig, err := base64.StdEncoding.DecodeString(gotSig)
	require.NoError(t, err)
	hash := sha256.Sum256([]byte(gotTS + http.MethodGet + gotPath))
	err = rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, hash[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	assert.NoError(t, err)
}

func TestSetCredentials_PKCS1(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	c := NewClient("", 0)
	require.NoError(t, c.SetCredentials("k", pemBytes))
	assert.True(t, c.Signed())
}

func TestSetCredentials_InvalidPEM(t *testing.T) {
	c := NewClient("", 0)
	require.Error(t, c.SetCredentials("k", []byte("not a pem")))
	assert.False(t, c.Signed())
}
