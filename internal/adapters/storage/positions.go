package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const positionColumns = `
	id, platform, market_id, question, category, entry_price, position_size,
	shares, status, opened_at, current_price, exit_price, closed_at,
	realized_pnl, fee_paid`

// ApplyCycle aplica el batch de un ciclo en una sola transacción:
// fila de ciclo, snapshots, cierres, refrescos de precio y aperturas (en ese orden,
// para que un mercado cerrado pueda reabrirse en el mismo ciclo).
// Devuelve los ids asignados a batch.Opens en el mismo orden.
func (s *SQLiteStorage) ApplyCycle(ctx context.Context, b domain.CycleBatch) ([]int64, error) {
	if b.ID == "" && !b.HasMutations() {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage.ApplyCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	var snapshots []domain.Opportunity
	if b.ID != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cycles (id, started_at, quotes, opportunities, opened, closed, failed_sources)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, formatTime(b.StartedAt), b.Quotes, len(b.Opportunities),
			len(b.Opens), len(b.Closes), joinPlatforms(b.FailedSources),
		); err != nil {
			return nil, fmt.Errorf("storage.ApplyCycle: insert cycle: %w", err)
		}

		snapshots = s.changedSnapshots(b.Opportunities)
		if err := insertSnapshots(ctx, tx, b, snapshots); err != nil {
			return nil, err
		}
	}

	for _, p := range b.Closes {
		if err := closePosition(ctx, tx, p); err != nil {
			return nil, err
		}
	}

	for _, u := range b.PriceUpdates {
		res, err := tx.ExecContext(ctx, `
			UPDATE positions SET current_price = ? WHERE id = ? AND status = 'OPEN'`,
			u.Price, u.PositionID)
		if err != nil {
			return nil, fmt.Errorf("storage.ApplyCycle: update price %d: %w", u.PositionID, err)
		}
		if err := expectOneRow(res, u.PositionID); err != nil {
			return nil, fmt.Errorf("storage.ApplyCycle: update price: %w", err)
		}
	}

	ids := make([]int64, 0, len(b.Opens))
	for _, p := range b.Opens {
		id, err := insertPosition(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage.ApplyCycle: commit: %w", err)
	}
	s.rememberSnapshots(snapshots)
	return ids, nil
}

// ListOpenPositions devuelve las posiciones OPEN ordenadas por id.
func (s *SQLiteStorage) ListOpenPositions(ctx context.Context) ([]domain.Position, error) {
	return s.queryPositions(ctx, `
		SELECT`+positionColumns+`
		FROM positions WHERE status = 'OPEN'
		ORDER BY id`)
}

// ListClosedPositions devuelve las posiciones WON/LOST por orden de cierre.
func (s *SQLiteStorage) ListClosedPositions(ctx context.Context) ([]domain.Position, error) {
	return s.queryPositions(ctx, `
		SELECT`+positionColumns+`
		FROM positions WHERE status IN ('WON', 'LOST')
		ORDER BY closed_at, id`)
}

// GetPosition devuelve una posición por id, o domain.ErrNotFound.
func (s *SQLiteStorage) GetPosition(ctx context.Context, id int64) (domain.Position, error) {
	positions, err := s.queryPositions(ctx, `
		SELECT`+positionColumns+`
		FROM positions WHERE id = ?`, id)
	if err != nil {
		return domain.Position{}, err
	}
	if len(positions) == 0 {
		return domain.Position{}, fmt.Errorf("storage.GetPosition: %d: %w", id, domain.ErrNotFound)
	}
	return positions[0], nil
}

// --- helpers internos ---

func insertPosition(ctx context.Context, tx *sql.Tx, p domain.Position) (int64, error) {
	if p.Status != domain.PositionOpen {
		return 0, fmt.Errorf("storage.insertPosition: %s: %w", p.Status, domain.ErrInvalidStatus)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO positions (platform, market_id, question, category, entry_price,
		                       position_size, shares, status, opened_at, current_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'OPEN', ?, ?)`,
		string(p.Platform), p.MarketID, p.Question, p.Category, p.EntryPrice,
		p.PositionSize, p.Shares, formatTime(p.OpenedAt), p.CurrentPrice,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.insertPosition: %s: %w", p.Key(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.insertPosition: last id: %w", err)
	}
	return id, nil
}

// closePosition escribe status y campos de cierre en un único UPDATE.
func closePosition(ctx context.Context, tx *sql.Tx, p domain.Position) error {
	if !p.Status.IsTerminal() || p.ClosedAt == nil {
		return fmt.Errorf("storage.closePosition: %d %s: %w", p.ID, p.Status, domain.ErrInvalidStatus)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE positions
		SET status = ?, current_price = ?, exit_price = ?, closed_at = ?,
		    realized_pnl = ?, fee_paid = ?
		WHERE id = ? AND status = 'OPEN'`,
		string(p.Status), p.CurrentPrice, p.ExitPrice, formatTime(*p.ClosedAt),
		p.RealizedPnL, p.FeePaid, p.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.closePosition: %d: %w", p.ID, err)
	}
	if err := expectOneRow(res, p.ID); err != nil {
		return fmt.Errorf("storage.closePosition: %w", err)
	}
	return nil
}

func insertSnapshots(ctx context.Context, tx *sql.Tx, b domain.CycleBatch, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_snapshots (cycle_id, platform, market_id, timestamp, price, liquidity, volume_24h)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.insertSnapshots: prepare: %w", err)
	}
	defer stmt.Close()

	ts := formatTime(b.StartedAt)
	for _, o := range opps {
		if _, err := stmt.ExecContext(ctx, b.ID, string(o.Platform), o.MarketID, ts,
			o.Price, o.Liquidity, o.Volume24h); err != nil {
			return fmt.Errorf("storage.insertSnapshots: %s: %w", o.Key(), err)
		}
	}
	return nil
}

// expectOneRow falla si el UPDATE guardado por status no tocó exactamente una fila.
func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("position %d: %w", id, domain.ErrNotOpen)
	}
	return nil
}

func (s *SQLiteStorage) queryPositions(ctx context.Context, query string, args ...any) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryPositions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var (
			p                   domain.Position
			platform, status    string
			openedAt            string
			exitPrice, realized sql.NullFloat64
			closedAt            sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &platform, &p.MarketID, &p.Question, &p.Category,
			&p.EntryPrice, &p.PositionSize, &p.Shares, &status, &openedAt,
			&p.CurrentPrice, &exitPrice, &closedAt, &realized, &p.FeePaid,
		); err != nil {
			return nil, fmt.Errorf("storage.queryPositions: scan: %w", err)
		}
		p.Platform = domain.Platform(platform)
		p.Status = domain.PositionStatus(status)
		p.OpenedAt = parseTime(openedAt)
		p.ExitPrice = exitPrice.Float64
		p.RealizedPnL = realized.Float64
		if closedAt.Valid {
			t := parseTime(closedAt.String)
			p.ClosedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
