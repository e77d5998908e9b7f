package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// DistributionInput describe una salida repartida entre uno o más bultos.
// La suma de las líneas debe coincidir con Quantity.
type DistributionInput struct {
	LotCode  string
	Date     *time.Time
	Quantity decimal.Decimal
	Unit     unit.Unit
	Lines    []PackageLine
	Notes    *string
}

type distributionForm struct {
	*base
	in    DistributionInput
	lines []movement.Line
}

func (f *distributionForm) steps(allowed ...entity.Verdict) []validation.Step[*distributionForm] {
	return []validation.Step[*distributionForm]{
		func(ctx context.Context, f *distributionForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) },
		validation.Check(func(f *distributionForm) validation.Errors { return f.verdictIn(allowed...) }),
		validation.Check(func(f *distributionForm) validation.Errors { return f.movementDate(f.in.Date) }),
		validation.Check(func(f *distributionForm) validation.Errors { return f.notExpiredAt(*f.in.Date) }),
		validation.Check(func(f *distributionForm) validation.Errors {
			if errs := validation.CompatibleUnit(fieldUnidad, f.in.Unit, f.st.lot.Unit); errs.HasErrors() {
				return errs
			}
			return validation.Positive(fieldCantidad, f.in.Quantity)
		}),
		func(_ context.Context, f *distributionForm) (validation.Errors, error) {
			lines, errs, err := f.packageLines(fieldCantidadesBultos, f.in.Lines)
			f.lines = lines
			return errs, err
		},
		func(_ context.Context, f *distributionForm) (validation.Errors, error) {
			parts := make([]unit.Quantity, 0, len(f.in.Lines))
			for _, l := range f.in.Lines {
				parts = append(parts, unit.Of(l.Quantity, l.Unit))
			}
			return validation.Conservation(fieldCantidadesBultos, unit.Of(f.in.Quantity, f.in.Unit), parts)
		},
	}
}

// packageLines valida cada línea contra su bulto; un bulto no puede repetirse.
func (b *base) packageLines(field string, in []PackageLine) ([]movement.Line, validation.Errors, error) {
	if len(in) == 0 {
		return nil, validation.Fail(field, validation.CodeRequired, "indique al menos un bulto"), nil
	}
	seen := make(map[int]bool, len(in))
	out := make([]movement.Line, 0, len(in))
	for _, l := range in {
		if seen[l.PackageNumber] {
			return nil, validation.Fail(fieldBulto, validation.CodeDuplicate,
				fmt.Sprintf("el bulto %d figura más de una vez", l.PackageNumber)), nil
		}
		seen[l.PackageNumber] = true
		line, errs, err := b.packageLine(field, l)
		if err != nil || errs.HasErrors() {
			return nil, errs, err
		}
		out = append(out, line)
	}
	return out, nil, nil
}

func (svc *Service) distribute(
	ctx context.Context, op string, in DistributionInput,
	variant func(lines []movement.Line) movement.Variant,
	allowed ...entity.Verdict,
) (*Result, error) {
	return svc.execute(ctx, op, func(ctx context.Context, b *base) (*Result, error) {
		f := &distributionForm{base: b, in: in}
		errs, err := validation.Chain(ctx, f, f.steps(allowed...)...)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}
		m, err := movement.Build(f.common(in.Date, in.Notes), variant(f.lines))
		if err != nil {
			return nil, err
		}
		return f.commit(ctx, m)
	})
}

// RegisterSale registra una venta de un lote liberado.
func (svc *Service) RegisterSale(ctx context.Context, in DistributionInput) (*Result, error) {
	return svc.distribute(ctx, "venta", in,
		func(lines []movement.Line) movement.Variant { return movement.Sale{Lines: lines} },
		entity.VerdictLiberado)
}

// RegisterProductionConsumption registra el consumo de un lote aprobado o liberado en producción.
func (svc *Service) RegisterProductionConsumption(ctx context.Context, in DistributionInput) (*Result, error) {
	return svc.distribute(ctx, "consumo_produccion", in,
		func(lines []movement.Line) movement.Variant { return movement.ProductionConsumption{Lines: lines} },
		entity.VerdictAprobado, entity.VerdictLiberado)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajuste de stock
// ──────────────────────────────────────────────────────────────────────────────

// StockAdjustmentInput describe una baja por ajuste sobre un bulto. Las observaciones son obligatorias.
type StockAdjustmentInput struct {
	LotCode string
	Line    PackageLine
	Date    *time.Time
	Notes   *string
}

type adjustmentForm struct {
	*base
	in   StockAdjustmentInput
	line movement.Line
}

// RegisterStockAdjustment registra una baja por ajuste (rotura, derrame, diferencia de inventario).
func (svc *Service) RegisterStockAdjustment(ctx context.Context, in StockAdjustmentInput) (*Result, error) {
	return svc.execute(ctx, "ajuste_stock", func(ctx context.Context, b *base) (*Result, error) {
		f := &adjustmentForm{base: b, in: in}
		errs, err := validation.Chain(ctx, f,
			func(ctx context.Context, f *adjustmentForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) },
			validation.Check(func(f *adjustmentForm) validation.Errors {
				notes := ""
				if f.in.Notes != nil {
					notes = *f.in.Notes
				}
				return validation.RequiredString(fieldObservaciones, notes, "indique el motivo del ajuste")
			}),
			func(_ context.Context, f *adjustmentForm) (validation.Errors, error) {
				line, errs, err := f.packageLine(fieldCantidad, f.in.Line)
				f.line = line
				return errs, err
			},
			validation.Check(func(f *adjustmentForm) validation.Errors { return f.movementDate(f.in.Date) }),
		)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}
		m, err := movement.Build(f.common(in.Date, in.Notes), movement.StockAdjustment{Line: f.line})
		if err != nil {
			return nil, err
		}
		return f.commit(ctx, m)
	})
}
