package repository

import (
	"context"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// AnalysisRepository define el puerto de persistencia para Analysis.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *entity.Analysis) error
	FindByNumber(ctx context.Context, number string) (*entity.Analysis, error)
	ListByLot(ctx context.Context, lotID string) ([]*entity.Analysis, error)
}
