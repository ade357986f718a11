package scanner

// Fetch paralelo de todos los venues.
//
// Cada source tiene su propio timeout. Un source que falla aporta cero quotes
// y su error queda registrado; nunca aborta el batch del resto.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
	"golang.org/x/sync/errgroup"
)

// fetchAll pide un batch a cada source en paralelo y los concatena en el orden
// de sources, una vez que todos terminaron.
func fetchAll(ctx context.Context, sources []ports.QuoteSource, timeout time.Duration) ([]domain.Quote, []domain.FetchError) {
	batches := make([][]domain.Quote, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			fctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()
			quotes, err := src.FetchQuotes(fctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			batches[i] = quotes
			slog.Debug("source fetched",
				"platform", src.Platform(),
				"quotes", len(quotes),
				"duration", time.Since(start).Round(time.Millisecond),
			)
			return nil
		})
	}
	_ = g.Wait() // las goroutines nunca devuelven error

	var (
		quotes []domain.Quote
		failed []domain.FetchError
	)
	for i, src := range sources {
		if errs[i] != nil {
			fe := domain.FetchError{Platform: src.Platform(), Err: errs[i]}
			slog.Warn("source fetch failed, skipping this cycle",
				"platform", src.Platform(),
				"err", errs[i],
			)
			failed = append(failed, fe)
			continue
		}
		quotes = append(quotes, batches[i]...)
	}
	return quotes, failed
}
