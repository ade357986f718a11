// Package performance deriva estadísticas del historial de posiciones cerradas.
// Todas las funciones son puras: mismo input, mismo output.
package performance

import (
	"github.com/alejandrodnm/polypaper/internal/domain"
)

// Summarize agrega el historial de posiciones cerradas.
// Las posiciones que no están en estado terminal se ignoran.
// Con historial vacío devuelve ceros (win_rate = roi = 0, sin dividir por cero).
func Summarize(closed []domain.Position) domain.Performance {
	var p domain.Performance
	for _, pos := range closed {
		switch pos.Status {
		case domain.PositionWon:
			p.Wins++
		case domain.PositionLost:
			p.Losses++
		default:
			continue
		}
		p.TotalTrades++
		p.TotalPnL += pos.RealizedPnL
		p.TotalFees += pos.FeePaid
		p.TotalInvested += pos.PositionSize
	}

	if p.TotalTrades > 0 {
		p.WinRate = float64(p.Wins) / float64(p.TotalTrades)
		p.AvgProfit = p.TotalPnL / float64(p.TotalTrades)
	}
	if p.TotalInvested > 0 {
		p.ROI = p.TotalPnL / p.TotalInvested
	}
	return p
}

// ByPlatform agrupa el historial por venue y lo resume por separado.
func ByPlatform(closed []domain.Position) map[domain.Platform]domain.Performance {
	groups := make(map[domain.Platform][]domain.Position)
	for _, pos := range closed {
		groups[pos.Platform] = append(groups[pos.Platform], pos)
	}

	out := make(map[domain.Platform]domain.Performance, len(groups))
	for platform, positions := range groups {
		out[platform] = Summarize(positions)
	}
	return out
}
