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

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, code, kind, motive, created_at, date, quantity, unit, initial_verdict, final_verdict,
	notes, lot_id, lot_code, origin_movement_id, analysis_number, author_id, active`

// Create persiste el movimiento y sus detalles.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		m.ID, m.Code, m.Kind, m.Motive, m.CreatedAt, m.Date, m.Quantity, m.Unit, m.InitialVerdict, m.FinalVerdict,
		m.Notes, m.LotID, m.LotCode, nullable(m.OriginMovementID), m.AnalysisNumber, nullable(m.AuthorID), m.Active,
	)
	for _, d := range m.Details {
		batch.Queue(`INSERT INTO movement_details (id, movement_id, package_id, package_number, quantity, unit)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, m.ID, d.PackageID, d.PackageNumber, d.Quantity, d.Unit,
		)
	}
	if err := sendBatch(ctx, r.q, batch); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// Deactivate apaga el flag Active de un movimiento revertido.
func (r *MovementRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE movements SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var origin, author *string
	err := row.Scan(
		&m.ID, &m.Code, &m.Kind, &m.Motive, &m.CreatedAt, &m.Date, &m.Quantity, &m.Unit,
		&m.InitialVerdict, &m.FinalVerdict, &m.Notes, &m.LotID, &m.LotCode, &origin,
		&m.AnalysisNumber, &author, &m.Active,
	)
	if err != nil {
		return nil, err
	}
	m.OriginMovementID, m.AuthorID = deref(origin), deref(author)
	return &m, nil
}

func (r *MovementRepo) findOne(ctx context.Context, where string, arg string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE `+where+` ORDER BY created_at DESC LIMIT 1`, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if err := r.loadDetails(ctx, []*entity.Movement{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// FindByID obtiene un movimiento con sus detalles.
func (r *MovementRepo) FindByID(ctx context.Context, id string) (*entity.Movement, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByCode obtiene el último movimiento con ese código.
func (r *MovementRepo) FindByCode(ctx context.Context, code string) (*entity.Movement, error) {
	return r.findOne(ctx, "code = $1", code)
}

// ListByLot lista los movimientos del lote en orden de creación, con sus detalles.
func (r *MovementRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM movements WHERE lot_id = $1 ORDER BY created_at, seq`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	if err := r.loadDetails(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadDetails completa los detalles de movements con una sola consulta.
func (r *MovementRepo) loadDetails(ctx context.Context, movements []*entity.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Movement, len(movements))
	ids := make([]string, 0, len(movements))
	for _, m := range movements {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, movement_id, package_id, package_number, quantity, unit
		FROM movement_details WHERE movement_id = ANY($1) ORDER BY movement_id, package_number`, ids)
	if err != nil {
		return fmt.Errorf("list movement details: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d entity.MovementDetail
		if err := rows.Scan(&d.ID, &d.MovementID, &d.PackageID, &d.PackageNumber, &d.Quantity, &d.Unit); err != nil {
			return fmt.Errorf("scan movement detail: %w", err)
		}
		if m, ok := byID[d.MovementID]; ok {
			m.Details = append(m.Details, d)
		}
	}
	return rows.Err()
}
