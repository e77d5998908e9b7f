package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/repository"
)

var _ repository.PackageRepository = (*PackageRepo)(nil)

// PackageRepo implementación de PackageRepository sobre PostgreSQL.
type PackageRepo struct {
	q Querier
}

// NewPackageRepository construye el adaptador de bultos.
func NewPackageRepository(q Querier) *PackageRepo {
	return &PackageRepo{q: q}
}

const packageColumns = `id, lot_id, number, initial_quantity, quantity, unit, state, active`

// SaveAll inserta o actualiza (saldo, estado, activo) todos los bultos en un solo batch.
func (r *PackageRepo) SaveAll(ctx context.Context, packages []*entity.Package) error {
	if len(packages) == 0 {
		return nil
	}
	query := `
		INSERT INTO packages (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			state = EXCLUDED.state,
			active = EXCLUDED.active`
	batch := &pgx.Batch{}
	for _, p := range packages {
		batch.Queue(query, p.ID, p.LotID, p.Number, p.InitialQuantity, p.Quantity, p.Unit, p.State, p.Active)
	}
	if err := sendBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("save packages: %w", err)
	}
	return nil
}

func scanPackage(row pgx.Row) (*entity.Package, error) {
	var p entity.Package
	if err := row.Scan(&p.ID, &p.LotID, &p.Number, &p.InitialQuantity, &p.Quantity, &p.Unit, &p.State, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID obtiene un bulto por ID.
func (r *PackageRepo) FindByID(ctx context.Context, id string) (*entity.Package, error) {
	p, err := scanPackage(r.q.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

// ListByLot lista los bultos del lote por número.
func (r *PackageRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.Package, error) {
	rows, err := r.q.Query(ctx, `SELECT `+packageColumns+` FROM packages WHERE lot_id = $1 ORDER BY number`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()
	var out []*entity.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
