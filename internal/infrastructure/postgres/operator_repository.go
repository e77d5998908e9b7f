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

var _ repository.OperatorRepository = (*OperatorRepo)(nil)

// OperatorRepo implementación del puerto OperatorRepository sobre PostgreSQL.
type OperatorRepo struct {
	q Querier
}

// NewOperatorRepository construye el adaptador de persistencia para operadores.
func NewOperatorRepository(q Querier) *OperatorRepo {
	return &OperatorRepo{q: q}
}

// Save inserta o actualiza un operador.
func (r *OperatorRepo) Save(ctx context.Context, o *entity.Operator) error {
	query := `
		INSERT INTO operators (id, email, password_hash, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, password_hash = EXCLUDED.password_hash, name = EXCLUDED.name,
			role = EXCLUDED.role, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Email, o.PasswordHash, o.Name, o.Role, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("save operator: %w", err)
	}
	return nil
}

func (r *OperatorRepo) findOne(ctx context.Context, where, arg string) (*entity.Operator, error) {
	query := `
		SELECT id, email, password_hash, name, role, status, created_at, updated_at
		FROM operators WHERE ` + where + ` LIMIT 1`
	var o entity.Operator
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.Email, &o.PasswordHash, &o.Name, &o.Role, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get operator: %w", err)
	}
	return &o, nil
}

// FindByID obtiene un operador por ID.
func (r *OperatorRepo) FindByID(ctx context.Context, id string) (*entity.Operator, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail obtiene un operador por email.
func (r *OperatorRepo) FindByEmail(ctx context.Context, email string) (*entity.Operator, error) {
	return r.findOne(ctx, "lower(email) = lower($1)", email)
}
