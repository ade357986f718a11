package kalshi

// Kalshi API DTOs. Prices are in cents (0-100); counts are contracts.

type marketsResponse struct {
	Markets []market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type marketResponse struct {
	Market market `json:"market"`
}

type market struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	OpenInterest   int64   `json:"open_interest"`
	Category       string  `json:"category"`
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
