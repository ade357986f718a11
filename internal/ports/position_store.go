package ports

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// PositionStore persiste las posiciones y el historial de ciclos.
type PositionStore interface {
	// ApplyCycle aplica todas las mutaciones de un ciclo en una sola transacción
	// y devuelve los ids asignados a batch.Opens, en el mismo orden.
	ApplyCycle(ctx context.Context, batch domain.CycleBatch) ([]int64, error)

	// ListOpenPositions devuelve las posiciones OPEN ordenadas por id.
	ListOpenPositions(ctx context.Context) ([]domain.Position, error)

	// ListClosedPositions devuelve las posiciones WON/LOST ordenadas por cierre.
	ListClosedPositions(ctx context.Context) ([]domain.Position, error)

	// RecentCycles devuelve los últimos ciclos, el más reciente primero.
	RecentCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
