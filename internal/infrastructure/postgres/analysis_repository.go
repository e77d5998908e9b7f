package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/repository"
)

var _ repository.AnalysisRepository = (*AnalysisRepo)(nil)

// AnalysisRepo implementación de AnalysisRepository sobre PostgreSQL.
type AnalysisRepo struct {
	q Querier
}

// NewAnalysisRepository construye el adaptador de análisis.
func NewAnalysisRepository(q Querier) *AnalysisRepo {
	return &AnalysisRepo{q: q}
}

const analysisColumns = `id, lot_id, number, requested_date, realized_date, verdict, titer,
	reanalysis_date, expiry_date, active, created_at`

// Save inserta el análisis o actualiza su resultado.
func (r *AnalysisRepo) Save(ctx context.Context, a *entity.Analysis) error {
	query := `
		INSERT INTO analyses (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			realized_date = EXCLUDED.realized_date,
			verdict = EXCLUDED.verdict,
			titer = EXCLUDED.titer,
			reanalysis_date = EXCLUDED.reanalysis_date,
			expiry_date = EXCLUDED.expiry_date,
			active = EXCLUDED.active`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.LotID, a.Number, a.RequestedDate, a.RealizedDate, a.Verdict, a.Titer,
		a.ReanalysisDate, a.ExpiryDate, a.Active, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("análisis %s: %w", a.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*entity.Analysis, error) {
	var a entity.Analysis
	err := row.Scan(&a.ID, &a.LotID, &a.Number, &a.RequestedDate, &a.RealizedDate, &a.Verdict, &a.Titer,
		&a.ReanalysisDate, &a.ExpiryDate, &a.Active, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByNumber obtiene el análisis activo con ese número.
func (r *AnalysisRepo) FindByNumber(ctx context.Context, number string) (*entity.Analysis, error) {
	a, err := scanAnalysis(r.q.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE number = $1 AND active`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// ListByLot lista los análisis del lote (activos o no) por fecha de alta.
func (r *AnalysisRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.Analysis, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE lot_id = $1 ORDER BY created_at, number`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()
	var out []*entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
