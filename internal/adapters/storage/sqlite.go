package storage

// Almacenamiento durable de posiciones y ciclos.
//
// Estrategia:
//   - `positions`: una fila por posición, nunca se borra. Los cambios de estado
//     van guardados por `status = 'OPEN'` para que las transiciones sean monótonas.
//     Un índice UNIQUE parcial impide dos OPEN para el mismo (platform, market_id).
//   - `cycles`: resumen ligero por ciclo. Siempre 1 fila.
//   - `market_snapshots`: precio/liquidez/volumen de las oportunidades. Solo se
//     escribe si el precio cambió respecto al último snapshot (cache en memoria).
//   - Cada ciclo se aplica en UNA transacción (ApplyCycle).
//   - Prune automático al arrancar: cycles > 30d, snapshots > 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    platform      TEXT NOT NULL,
    market_id     TEXT NOT NULL,
    question      TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT '',
    entry_price   REAL NOT NULL,
    position_size REAL NOT NULL,
    shares        REAL NOT NULL,
    status        TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'WON', 'LOST')),
    opened_at     TEXT NOT NULL,
    current_price REAL NOT NULL,
    exit_price    REAL,
    closed_at     TEXT,
    realized_pnl  REAL,
    fee_paid      REAL NOT NULL DEFAULT 0,
    -- terminal <=> campos de cierre presentes
    CHECK ((status = 'OPEN') = (closed_at IS NULL)),
    CHECK ((status = 'OPEN') = (realized_pnl IS NULL)),
    CHECK (fee_paid = 0 OR status = 'WON')
);

-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id             TEXT PRIMARY KEY,
    started_at     TEXT    NOT NULL,
    quotes         INTEGER NOT NULL DEFAULT 0,
    opportunities  INTEGER NOT NULL DEFAULT 0,
    opened         INTEGER NOT NULL DEFAULT 0,
    closed         INTEGER NOT NULL DEFAULT 0,
    failed_sources TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS market_snapshots (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id   TEXT NOT NULL,
    platform   TEXT NOT NULL,
    market_id  TEXT NOT NULL,
    timestamp  TEXT NOT NULL,
    price      REAL NOT NULL,
    liquidity  REAL NOT NULL DEFAULT 0,
    volume_24h REAL NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_open_market
    ON positions(platform, market_id) WHERE status = 'OPEN';
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
CREATE INDEX IF NOT EXISTS idx_cycles_at        ON cycles(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_snapshots_market ON market_snapshots(platform, market_id, timestamp DESC);
`

const (
	retentionCycles    = 30 * 24 * time.Hour
	retentionSnapshots = 14 * 24 * time.Hour
	timeLayout         = "2006-01-02T15:04:05.000000000Z07:00" // ancho fijo: ordena como texto
)

// SQLiteStorage implementa ports.PositionStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db        *sql.DB
	snapshots map[domain.MarketKey]float64 // último precio guardado por mercado
	mu        sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache de snapshots.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:        db,
		snapshots: make(map[domain.MarketKey]float64),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina ciclos y snapshots antiguos. Las posiciones no se borran nunca.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, formatTime(now.Add(-retentionCycles)))
	s.db.ExecContext(ctx, `DELETE FROM market_snapshots WHERE timestamp < ?`, formatTime(now.Add(-retentionSnapshots)))
}

// warmCache precarga el último precio por mercado, evitando snapshots
// redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT platform, market_id, price FROM market_snapshots
		WHERE id IN (SELECT MAX(id) FROM market_snapshots GROUP BY platform, market_id)`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var platform, marketID string
		var price float64
		if rows.Scan(&platform, &marketID, &price) == nil {
			s.snapshots[domain.MarketKey{Platform: domain.Platform(platform), MarketID: marketID}] = price
		}
	}
}

// changedSnapshots devuelve las oportunidades cuyo precio cambió desde el último snapshot.
func (s *SQLiteStorage) changedSnapshots(opps []domain.Opportunity) []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Opportunity
	for _, o := range opps {
		if prev, ok := s.snapshots[o.Key()]; ok && prev == o.Price {
			continue
		}
		out = append(out, o)
	}
	return out
}

// rememberSnapshots actualiza la cache tras un commit confirmado.
func (s *SQLiteStorage) rememberSnapshots(opps []domain.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range opps {
		s.snapshots[o.Key()] = o.Price
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func joinPlatforms(ps []domain.Platform) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func splitPlatforms(s string) []domain.Platform {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]domain.Platform, len(parts))
	for i, p := range parts {
		out[i] = domain.Platform(p)
	}
	return out
}
