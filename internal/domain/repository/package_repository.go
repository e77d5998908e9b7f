package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// PackageRepository define el puerto de persistencia para los bultos de un lote.
type PackageRepository interface {
	SaveAll(ctx context.Context, packages []*entity.Package) error
	FindByID(ctx context.Context, id string) (*entity.Package, error)
	ListByLot(ctx context.Context, lotID string) ([]*entity.Package, error)
}
