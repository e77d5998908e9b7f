package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para Lot (DIP).
// Las búsquedas devuelven (nil, nil) cuando no hay resultado.
type LotRepository interface {
	Save(ctx context.Context, lot *entity.Lot) error
	FindByID(ctx context.Context, id string) (*entity.Lot, error)
	FindByCode(ctx context.Context, code string) (*entity.Lot, error)
	FindAllActiveByCode(ctx context.Context, code string) ([]*entity.Lot, error)
	// GetForUpdate bloquea la fila del lote hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	ListActiveByVerdict(ctx context.Context, verdicts ...entity.Verdict) ([]*entity.Lot, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Lot, error)
}
