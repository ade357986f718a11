package domain

// Opportunity es una Quote que pasó el filtro de entrada, con su posición
// (1-based) en el ranking del scan.
type Opportunity struct {
	Quote
	Rank int
}
