package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// TraceRepository define el puerto de persistencia para las trazas de lotes trazables.
type TraceRepository interface {
	SaveAll(ctx context.Context, traces []*entity.Trace) error
	ListByLot(ctx context.Context, lotID string) ([]*entity.Trace, error)
}
