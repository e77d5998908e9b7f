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

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, code, product_id, supplier_id, manufacturer_id, origin_country, supplier_lot_code,
	intake_date, supplier_expiry_date, supplier_reanalysis_date, expiry_date, reanalysis_date,
	origin_motive, package_count, verdict, initial_quantity, quantity, unit, traceable, active, created_at`

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	var supplierID, manufacturerID *string
	err := row.Scan(
		&l.ID, &l.Code, &l.ProductID, &supplierID, &manufacturerID, &l.OriginCountry, &l.SupplierLotCode,
		&l.IntakeDate, &l.SupplierExpiryDate, &l.SupplierReanalysisDate, &l.ExpiryDate, &l.ReanalysisDate,
		&l.OriginMotive, &l.PackageCount, &l.Verdict, &l.InitialQuantity, &l.Quantity, &l.Unit,
		&l.Traceable, &l.Active, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.SupplierID, l.ManufacturerID = deref(supplierID), deref(manufacturerID)
	return &l, nil
}

// Save inserta el lote o actualiza sus campos mutables (dictamen, cantidad, fechas vigentes, activo).
func (r *LotRepo) Save(ctx context.Context, l *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			verdict = EXCLUDED.verdict,
			quantity = EXCLUDED.quantity,
			expiry_date = EXCLUDED.expiry_date,
			reanalysis_date = EXCLUDED.reanalysis_date,
			active = EXCLUDED.active`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.Code, l.ProductID, nullable(l.SupplierID), nullable(l.ManufacturerID), l.OriginCountry, l.SupplierLotCode,
		l.IntakeDate, l.SupplierExpiryDate, l.SupplierReanalysisDate, l.ExpiryDate, l.ReanalysisDate,
		l.OriginMotive, l.PackageCount, l.Verdict, l.InitialQuantity, l.Quantity, l.Unit,
		l.Traceable, l.Active, l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", l.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("save lot: %w", err)
	}
	return nil
}

func (r *LotRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// FindByID obtiene un lote por ID.
func (r *LotRepo) FindByID(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := r.findOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// FindByCode obtiene el lote con ese código, prefiriendo el activo.
func (r *LotRepo) FindByCode(ctx context.Context, code string) (*entity.Lot, error) {
	l, err := r.findOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE code = $1
		ORDER BY active DESC, created_at DESC LIMIT 1`, code)
	if err != nil {
		return nil, fmt.Errorf("get lot by code: %w", err)
	}
	return l, nil
}

// GetForUpdate obtiene el lote y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := r.findOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("get lot for update: %w", err)
	}
	return l, nil
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// FindAllActiveByCode lista los lotes activos con ese código.
func (r *LotRepo) FindAllActiveByCode(ctx context.Context, code string) ([]*entity.Lot, error) {
	out, err := r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE code = $1 AND active ORDER BY created_at`, code)
	if err != nil {
		return nil, fmt.Errorf("list active lots by code: %w", err)
	}
	return out, nil
}

// ListActiveByVerdict lista los lotes activos en alguno de los dictámenes dados.
func (r *LotRepo) ListActiveByVerdict(ctx context.Context, verdicts ...entity.Verdict) ([]*entity.Lot, error) {
	values := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		values = append(values, string(v))
	}
	out, err := r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE active AND verdict = ANY($1)
		ORDER BY created_at, code`, values)
	if err != nil {
		return nil, fmt.Errorf("list lots by verdict: %w", err)
	}
	return out, nil
}

// List lista lotes paginados por fecha de alta.
func (r *LotRepo) List(ctx context.Context, limit, offset int) ([]*entity.Lot, error) {
	out, err := r.list(ctx, `SELECT `+lotColumns+` FROM lots ORDER BY created_at, code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return out, nil
}
