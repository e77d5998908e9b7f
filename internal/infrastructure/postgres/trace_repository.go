package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/repository"
)

var _ repository.TraceRepository = (*TraceRepo)(nil)

// TraceRepo implementación de TraceRepository sobre PostgreSQL.
type TraceRepo struct {
	q Querier
}

// NewTraceRepository construye el adaptador de trazas.
func NewTraceRepository(q Querier) *TraceRepo {
	return &TraceRepo{q: q}
}

// SaveAll inserta las trazas nuevas y actualiza el flag Active de las existentes.
func (r *TraceRepo) SaveAll(ctx context.Context, traces []*entity.Trace) error {
	if len(traces) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range traces {
		batch.Queue(`
			INSERT INTO traces (id, lot_id, package_id, package_number, number, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active`,
			t.ID, t.LotID, t.PackageID, t.PackageNumber, t.Number, t.Active,
		)
	}
	if err := sendBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("save traces: %w", err)
	}
	return nil
}

// ListByLot lista las trazas del lote por número.
func (r *TraceRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.Trace, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, lot_id, package_id, package_number, number, active
		FROM traces WHERE lot_id = $1 ORDER BY number`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()
	var out []*entity.Trace
	for rows.Next() {
		var t entity.Trace
		if err := rows.Scan(&t.ID, &t.LotID, &t.PackageID, &t.PackageNumber, &t.Number, &t.Active); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
