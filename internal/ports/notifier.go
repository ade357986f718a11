package ports

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// Notifier presenta el resultado de cada ciclo al usuario.
type Notifier interface {
	// NotifyCycle muestra oportunidades, entradas y cierres del ciclo.
	// En la implementación de consola, imprime tablas formateadas.
	NotifyCycle(ctx context.Context, report *domain.CycleReport) error
}
