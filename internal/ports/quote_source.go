package ports

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// QuoteSource normaliza los datos de un venue en Quotes.
// Hay una implementación live (HTTP) y una sintética por plataforma;
// el core solo depende de esta interfaz.
type QuoteSource interface {
	// Platform identifica el venue.
	Platform() domain.Platform

	// FetchQuotes devuelve el batch de cotizaciones actual del venue, sin filtrar.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)
}

// QuoteLookup es opcional: permite refrescar un mercado concreto cuando
// no aparece en el batch del ciclo.
type QuoteLookup interface {
	// FetchQuote devuelve la cotización actual de un mercado.
	// Devuelve domain.ErrNotFound si el venue no lo conoce.
	FetchQuote(ctx context.Context, marketID string) (domain.Quote, error)
}
