package lot

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// PackageView es un bulto con su cantidad en la unidad sugerida para mostrar.
type PackageView struct {
	Package         *entity.Package
	DisplayQuantity decimal.Decimal
	DisplayUnit     unit.Unit
}

// LotView es la ficha de un lote: sus bultos, análisis y trazas vigentes.
type LotView struct {
	Lot             *entity.Lot
	Product         *entity.Product
	DisplayQuantity decimal.Decimal
	DisplayUnit     unit.Unit
	Packages        []PackageView
	Analyses        []*entity.Analysis
	ActiveTraces    int
}

// GetLot devuelve la ficha del lote con ese código (activo o no).
func (svc *Service) GetLot(ctx context.Context, code string) (*LotView, error) {
	var view *LotView
	err := svc.tx.Run(ctx, func(s Stores) error {
		l, err := s.Lots.FindByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("buscar lote: %w", err)
		}
		if l == nil {
			return domain.ErrNotFound
		}
		packages, err := s.Packages.ListByLot(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("listar bultos: %w", err)
		}
		analyses, err := s.Analyses.ListByLot(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("listar análisis: %w", err)
		}
		traces, err := s.Traces.ListByLot(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("listar trazas: %w", err)
		}
		product, err := s.Products.FindByID(ctx, l.ProductID)
		if err != nil {
			return fmt.Errorf("buscar producto: %w", err)
		}

		view = &LotView{Lot: l, Product: product, Analyses: analyses}
		view.DisplayQuantity, view.DisplayUnit = unit.ToDisplay(l.Unit, l.Quantity)
		for _, p := range packages {
			q, u := unit.ToDisplay(p.Unit, p.Quantity)
			view.Packages = append(view.Packages, PackageView{Package: p, DisplayQuantity: q, DisplayUnit: u})
		}
		for _, t := range traces {
			if t.Active {
				view.ActiveTraces++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListMovements devuelve el historial de movimientos del lote en orden de creación.
func (svc *Service) ListMovements(ctx context.Context, code string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := svc.tx.Run(ctx, func(s Stores) error {
		l, err := s.Lots.FindByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("buscar lote: %w", err)
		}
		if l == nil {
			return domain.ErrNotFound
		}
		out, err = s.Movements.ListByLot(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("listar movimientos: %w", err)
		}
		return nil
	})
	return out, err
}

// ListLots lista los lotes paginados.
func (svc *Service) ListLots(ctx context.Context, limit, offset int) ([]*entity.Lot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []*entity.Lot
	err := svc.tx.Run(ctx, func(s Stores) error {
		var err error
		out, err = s.Lots.List(ctx, limit, offset)
		return err
	})
	return out, err
}
