package engine

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/application/scanner"
)

// QuoteScanner es la interfaz mínima que el engine necesita del scanner.
// Desacopla el paper engine de *scanner.Scanner concreto.
type QuoteScanner interface {
	Scan(ctx context.Context) scanner.Result
}
