package domain

// Performance son las estadísticas agregadas del historial de posiciones cerradas.
type Performance struct {
	TotalTrades   int
	Wins          int
	Losses        int
	WinRate       float64 // wins / total_trades (fracción, no %)
	TotalPnL      float64 // suma de realized_pnl (ya neto de fees)
	TotalFees     float64
	TotalInvested float64 // suma de position_size
	ROI           float64 // total_pnl / total_invested
	AvgProfit     float64 // total_pnl / total_trades
}
