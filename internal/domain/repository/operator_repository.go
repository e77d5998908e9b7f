package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// OperatorRepository define el puerto de persistencia para Operator (DIP).
type OperatorRepository interface {
	Save(ctx context.Context, operator *entity.Operator) error
	FindByID(ctx context.Context, id string) (*entity.Operator, error)
	FindByEmail(ctx context.Context, email string) (*entity.Operator, error)
}
