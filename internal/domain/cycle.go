package domain

import "time"

// PriceUpdate refresca el current_price de una posición que sigue OPEN.
type PriceUpdate struct {
	PositionID int64
	Price      float64
}

// CycleBatch agrupa todas las mutaciones de un ciclo de scan.
// El store lo aplica en una única transacción: o entra todo o nada.
type CycleBatch struct {
	ID            string // UUID del ciclo
	StartedAt     time.Time
	Quotes        int
	Opportunities []Opportunity
	FailedSources []Platform

	Opens        []Position
	PriceUpdates []PriceUpdate
	Closes       []Position
}

// HasMutations devuelve true si el batch toca alguna posición.
func (b CycleBatch) HasMutations() bool {
	return len(b.Opens) > 0 || len(b.PriceUpdates) > 0 || len(b.Closes) > 0
}

// CycleRecord es el resumen persistido de un ciclo.
type CycleRecord struct {
	ID            string
	StartedAt     time.Time
	Quotes        int
	Opportunities int
	Opened        int
	Closed        int
	FailedSources []Platform
}

// CycleReport es lo que devuelve un run_once.
type CycleReport struct {
	CycleID       string
	StartedAt     time.Time
	Duration      time.Duration
	Quotes        int
	Opportunities []Opportunity
	Opened        []Position
	Closed        []Position
	Refreshed     int // posiciones que siguen OPEN con precio nuevo
	Skipped       int // posiciones sin quote fresca en este ciclo
	FailedSources []Platform
	OpenPositions []Position
}
