package storage

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// RecentCycles devuelve los últimos `limit` ciclos, el más reciente primero.
func (s *SQLiteStorage) RecentCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, quotes, opportunities, opened, closed, failed_sources
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: query: %w", err)
	}
	defer rows.Close()

	var out []domain.CycleRecord
	for rows.Next() {
		var c domain.CycleRecord
		var startedAt, failed string
		if err := rows.Scan(&c.ID, &startedAt, &c.Quotes, &c.Opportunities,
			&c.Opened, &c.Closed, &failed); err != nil {
			return nil, fmt.Errorf("storage.RecentCycles: scan row: %w", err)
		}
		c.StartedAt = parseTime(startedAt)
		c.FailedSources = splitPlatforms(failed)
		out = append(out, c)
	}
	return out, rows.Err()
}
