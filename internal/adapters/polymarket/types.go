package polymarket

import "encoding/json"

// DTOs raw de la Gamma API. Solo se usan dentro de este paquete.
// La conversión a domain.Quote se hace en mapping.go.

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene los campos de un mercado que usa el scanner.
// Gamma devuelve algunos campos numéricos como strings JSON, usamos json.Number.
// outcomePrices llega como un string que contiene un array JSON: "[\"0.975\", \"0.025\"]".
type gammaMarket struct {
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	Category      string          `json:"category"`
	EndDateISO    string          `json:"endDateIso"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume24h     json.Number     `json:"volume24hr"`
	VolumeNum     json.Number     `json:"volumeNum"`
	LiquidityNum  json.Number     `json:"liquidityNum"`
	Liquidity     json.Number     `json:"liquidity"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
}
