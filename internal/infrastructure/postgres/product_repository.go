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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Save inserta el producto o actualiza nombre, unidad y estado.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, code, name, unit, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit, active = EXCLUDED.active`
	_, err := r.q.Exec(ctx, query, p.ID, p.Code, p.Name, p.Unit, p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (r *ProductRepo) findOne(ctx context.Context, where, arg string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT id, code, name, unit, active, created_at FROM products WHERE `+where, arg).Scan(
		&p.ID, &p.Code, &p.Name, &p.Unit, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// FindByID obtiene un producto por ID.
func (r *ProductRepo) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByCode obtiene un producto por su código interno.
func (r *ProductRepo) FindByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.findOne(ctx, "code = $1", code)
}

// List lista productos por código con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, code, name, unit, active, created_at
		FROM products ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
