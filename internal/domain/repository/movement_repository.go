package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos. Es sólo de inserción:
// el único cambio admitido sobre un movimiento guardado es apagar su flag Active.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	Deactivate(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*entity.Movement, error)
	FindByCode(ctx context.Context, code string) (*entity.Movement, error)
	// ListByLot devuelve los movimientos del lote con sus detalles, en orden de creación.
	ListByLot(ctx context.Context, lotID string) ([]*entity.Movement, error)
}
