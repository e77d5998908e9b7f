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

// SaleReturnInput describe el reingreso de mercadería vendida.
// SaleRef es el código (o ID) de la venta que se devuelve.
type SaleReturnInput struct {
	LotCode string
	SaleRef string
	Date    *time.Time
	Lines   []PackageLine
	Notes   *string
}

type saleReturnForm struct {
	*base
	in    SaleReturnInput
	sale  *entity.Movement
	lines []movement.Line
}

func (f *saleReturnForm) steps() []validation.Step[*saleReturnForm] {
	return []validation.Step[*saleReturnForm]{
		func(ctx context.Context, f *saleReturnForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) },
		validation.Check(func(f *saleReturnForm) validation.Errors {
			return f.verdictIn(entity.VerdictLiberado, entity.VerdictDevolucionClientes)
		}),
		validation.Check((*saleReturnForm).findSale),
		validation.Check(func(f *saleReturnForm) validation.Errors {
			if errs := f.movementDate(f.in.Date); errs.HasErrors() {
				return errs
			}
			return validation.NotBefore(fieldFecha, *f.in.Date, f.sale.Date, "la devolución no puede ser anterior a la venta")
		}),
		func(_ context.Context, f *saleReturnForm) (validation.Errors, error) { return f.checkLines() },
	}
}

func (f *saleReturnForm) findSale() validation.Errors {
	if errs := validation.RequiredString(fieldMovimiento, f.in.SaleRef, "indique la venta que se devuelve"); errs.HasErrors() {
		return errs
	}
	for _, m := range f.st.movements {
		if (m.Code == f.in.SaleRef || m.ID == f.in.SaleRef) && m.Active && m.Motive == entity.MotiveVenta {
			f.sale = m
			return nil
		}
	}
	return validation.Fail(fieldMovimiento, validation.CodeNotFound, "no existe una venta vigente "+f.in.SaleRef+" en el lote")
}

// returnable devuelve, por bulto, lo vendido en la venta menos lo ya devuelto, en la unidad del bulto.
func (f *saleReturnForm) returnable() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	add := func(m *entity.Movement, sign int64) error {
		for _, det := range m.Details {
			p := f.st.packageByNumber(det.PackageNumber)
			if p == nil {
				continue
			}
			q, err := unit.Convert(det.Unit, det.Quantity, p.Unit)
			if err != nil {
				return err
			}
			out[p.ID] = out[p.ID].Add(q.Mul(decimal.NewFromInt(sign)))
		}
		return nil
	}
	if err := add(f.sale, 1); err != nil {
		return nil, err
	}
	for _, m := range f.st.movements {
		if m.Active && m.Motive == entity.MotiveDevolucionVenta && m.OriginMovementID == f.sale.ID {
			if err := add(m, -1); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (f *saleReturnForm) checkLines() (validation.Errors, error) {
	if len(f.in.Lines) == 0 {
		return validation.Fail(fieldCantidadesBultos, validation.CodeRequired, "indique al menos un bulto"), nil
	}
	pending, err := f.returnable()
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(f.in.Lines))
	for _, l := range f.in.Lines {
		p := f.st.packageByNumber(l.PackageNumber)
		if p == nil || seen[l.PackageNumber] {
			return validation.Fail(fieldBulto, validation.CodeInvalid,
				fmt.Sprintf("el bulto %d no es válido para esta devolución", l.PackageNumber)), nil
		}
		seen[l.PackageNumber] = true
		if errs := validation.Positive(fieldCantidadesBultos, l.Quantity); errs.HasErrors() {
			return errs, nil
		}
		if errs := validation.CompatibleUnit(fieldUnidad, l.Unit, p.Unit); errs.HasErrors() {
			return errs, nil
		}
		errs, err := validation.Available(fieldCantidadesBultos, unit.Of(l.Quantity, l.Unit), unit.Of(pending[p.ID], p.Unit))
		if err != nil || errs.HasErrors() {
			return errs, err
		}
		f.lines = append(f.lines, movement.Line{Package: p, Quantity: l.Quantity, Unit: l.Unit})
	}
	return nil, nil
}

// RegisterSaleReturn registra la devolución de una venta; el lote pasa a DEVOLUCION_CLIENTES.
func (svc *Service) RegisterSaleReturn(ctx context.Context, in SaleReturnInput) (*Result, error) {
	return svc.execute(ctx, "devolucion_venta", func(ctx context.Context, b *base) (*Result, error) {
		f := &saleReturnForm{base: b, in: in}
		errs, err := validation.Chain(ctx, f, f.steps()...)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}
		m, err := movement.Build(f.common(in.Date, in.Notes), movement.SaleReturn{
			Lines:          f.lines,
			Origin:         f.sale,
			InitialVerdict: f.st.lot.Verdict,
		})
		if err != nil {
			return nil, err
		}
		f.st.lot.Verdict = m.FinalVerdict
		return f.commit(ctx, m)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Devolución al proveedor
// ──────────────────────────────────────────────────────────────────────────────

// RegisterSupplierReturn devuelve al proveedor todo el saldo de un lote comprado que no fue liberado.
func (svc *Service) RegisterSupplierReturn(ctx context.Context, in VerdictChangeInput) (*Result, error) {
	return svc.execute(ctx, "devolucion_compra", func(ctx context.Context, b *base) (*Result, error) {
		f := &verdictForm{base: b, in: in}
		errs, err := validation.Chain(ctx, f,
			f.resolve(),
			validation.Check(func(f *verdictForm) validation.Errors {
				if f.st.lot.OriginMotive != entity.MotiveCompra {
					return validation.Fail(fieldLote, validation.CodeState, "sólo se devuelven al proveedor lotes comprados")
				}
				return nil
			}),
			f.verdict(entity.VerdictRecibido, entity.VerdictCuarentena, entity.VerdictRechazado, entity.VerdictVencido),
			validation.Check(func(f *verdictForm) validation.Errors {
				if !f.st.lot.Quantity.IsPositive() {
					return validation.Fail(fieldCantidad, validation.CodeInsufficient, "el lote no tiene saldo para devolver")
				}
				return nil
			}),
			f.date(),
		)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}

		var lines []movement.Line
		for _, p := range f.st.packages {
			if p.Active && p.Quantity.IsPositive() {
				lines = append(lines, movement.Line{Package: p, Quantity: p.Quantity, Unit: p.Unit})
			}
		}
		m, err := movement.Build(f.common(in.Date, in.Notes), movement.SupplierReturn{Lines: lines})
		if err != nil {
			return nil, err
		}
		return f.commit(ctx, m)
	})
}
