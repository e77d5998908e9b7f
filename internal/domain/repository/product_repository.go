package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Save(ctx context.Context, product *entity.Product) error
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	FindByCode(ctx context.Context, code string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
