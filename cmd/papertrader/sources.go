package main

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polypaper/config"
	"github.com/alejandrodnm/polypaper/internal/adapters/kalshi"
	"github.com/alejandrodnm/polypaper/internal/adapters/polymarket"
	"github.com/alejandrodnm/polypaper/internal/adapters/synthetic"
	"github.com/alejandrodnm/polypaper/internal/ports"
)

// buildSources crea un adapter por venue habilitado, live o sintético.
func buildSources(cfg *config.Config) ([]ports.QuoteSource, error) {
	var sources []ports.QuoteSource

	if pm := cfg.Sources.Polymarket; pm.Enabled {
		if pm.Demo {
			sources = append(sources, synthetic.NewPolymarket(cfg.Sources.Seed))
		} else {
			sources = append(sources, polymarket.NewClient(pm.GammaBase, pm.Limit))
		}
	}

	if k := cfg.Sources.Kalshi; k.Enabled {
		if k.Demo {
			// semilla distinta para que ambos catálogos no caminen igual
			sources = append(sources, synthetic.NewKalshi(cfg.Sources.Seed+1))
		} else {
			client := kalshi.NewClient(k.BaseURL, k.Limit)
			pem, err := k.PrivateKeyPEM()
			if err != nil {
				return nil, err
			}
			if k.APIKeyID != "" && pem != nil {
				if err := client.SetCredentials(k.APIKeyID, pem); err != nil {
					return nil, fmt.Errorf("kalshi credentials: %w", err)
				}
			} else {
				slog.Debug("kalshi: no credentials configured, using public market data")
			}
			sources = append(sources, client)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no market sources enabled")
	}
	return sources, nil
}
