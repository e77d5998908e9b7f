package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// IntakeInput describe el ingreso de un lote por compra o producción propia.
type IntakeInput struct {
	LotCode                string // opcional; si falta se genera a partir del producto
	ProductID              string
	SupplierID             string // obligatorio en compras
	ManufacturerID         string
	OriginCountry          string
	SupplierLotCode        string
	IntakeDate             *time.Time
	SupplierExpiryDate     *time.Time
	SupplierReanalysisDate *time.Time
	PackageCount           int
	Quantity               decimal.Decimal // total declarado
	Unit                   unit.Unit
	PackageQuantities      []unit.Quantity // una por bulto, en orden
	Traceable              bool
	Notes                  *string
}

type intakeForm struct {
	*base
	in      IntakeInput
	motive  entity.Motive
	product *entity.Product
}

func (f *intakeForm) steps() []validation.Step[*intakeForm] {
	return []validation.Step[*intakeForm]{
		func(ctx context.Context, f *intakeForm) (validation.Errors, error) { return f.checkProduct(ctx) },
		validation.Check(func(f *intakeForm) validation.Errors {
			if f.motive != entity.MotiveCompra {
				return nil
			}
			return validation.RequiredString(fieldProveedor, f.in.SupplierID, "ingrese el proveedor")
		}),
		validation.Check(func(f *intakeForm) validation.Errors {
			if errs := validation.RequiredTime(fieldFechaIngreso, f.in.IntakeDate, "ingrese la fecha de ingreso"); errs.HasErrors() {
				return errs
			}
			return validation.NotAfter(fieldFechaIngreso, *f.in.IntakeDate, f.now, "la fecha de ingreso no puede ser futura")
		}),
		validation.Check(func(f *intakeForm) validation.Errors {
			if f.in.PackageCount < 1 {
				return validation.Fail(fieldCantidadBultos, validation.CodeOutOfRange, "el lote debe tener al menos un bulto")
			}
			return nil
		}),
		validation.Check(func(f *intakeForm) validation.Errors {
			if !f.in.Unit.Valid() {
				return validation.Fail(fieldUnidad, validation.CodeInvalid, "unidad de medida desconocida")
			}
			return validation.Positive(fieldCantidad, f.in.Quantity)
		}),
		validation.Check((*intakeForm).checkPackageQuantities),
		func(_ context.Context, f *intakeForm) (validation.Errors, error) {
			return validation.Conservation(fieldCantidadesBultos, unit.Of(f.in.Quantity, f.in.Unit), f.in.PackageQuantities)
		},
		validation.Check((*intakeForm).checkTraceable),
		validation.Check((*intakeForm).checkSupplierDates),
		func(ctx context.Context, f *intakeForm) (validation.Errors, error) { return f.checkLotCode(ctx) },
	}
}

func (f *intakeForm) checkProduct(ctx context.Context) (validation.Errors, error) {
	if errs := validation.RequiredString(fieldProducto, f.in.ProductID, "seleccione el producto"); errs.HasErrors() {
		return errs, nil
	}
	p, err := f.s.Products.FindByID(ctx, f.in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("buscar producto: %w", err)
	}
	if p == nil || !p.Active {
		return validation.Fail(fieldProducto, validation.CodeNotFound, "el producto no existe"), nil
	}
	f.product = p
	return nil, nil
}

func (f *intakeForm) checkPackageQuantities() validation.Errors {
	if len(f.in.PackageQuantities) != f.in.PackageCount {
		return validation.Fail(fieldCantidadesBultos, validation.CodeInvalid,
			fmt.Sprintf("se declararon %d bultos y %d cantidades", f.in.PackageCount, len(f.in.PackageQuantities)))
	}
	for _, q := range f.in.PackageQuantities {
		if errs := validation.Positive(fieldCantidadesBultos, q.Amount); errs.HasErrors() {
			return errs
		}
		if errs := validation.CompatibleUnit(fieldCantidadesBultos, q.Unit, f.in.Unit); errs.HasErrors() {
			return errs
		}
	}
	return nil
}

func (f *intakeForm) checkTraceable() validation.Errors {
	if !f.in.Traceable {
		return nil
	}
	if !f.in.Unit.IsCount() {
		return validation.Fail(fieldUnidad, validation.CodeInvalid, "sólo los lotes en unidades pueden ser trazables")
	}
	for _, q := range f.in.PackageQuantities {
		if errs := validation.Integer(fieldCantidadesBultos, q.Amount); errs.HasErrors() {
			return errs
		}
	}
	return nil
}

func (f *intakeForm) checkSupplierDates() validation.Errors {
	intake := *f.in.IntakeDate
	if d := f.in.SupplierExpiryDate; d != nil && !validation.Day(*d).After(validation.Day(intake)) {
		return validation.Fail(fieldVencProveedor, validation.CodeDate, "el vencimiento debe ser posterior a la fecha de ingreso")
	}
	if d := f.in.SupplierReanalysisDate; d != nil {
		if errs := validation.NotBefore(fieldReanalProveedor, *d, intake,
			"el reanálisis no puede ser anterior a la fecha de ingreso"); errs.HasErrors() {
			return errs
		}
		if f.in.SupplierExpiryDate != nil {
			return validation.NotAfter(fieldReanalProveedor, *d, *f.in.SupplierExpiryDate,
				"el reanálisis no puede ser posterior al vencimiento")
		}
	}
	return nil
}

func (f *intakeForm) checkLotCode(ctx context.Context) (validation.Errors, error) {
	if f.in.LotCode == "" {
		f.in.LotCode = fmt.Sprintf("L-%s-%s", f.product.Code, f.now.Format("060102150405"))
	}
	existing, err := f.s.Lots.FindByCode(ctx, f.in.LotCode)
	if err != nil {
		return nil, fmt.Errorf("buscar lote: %w", err)
	}
	if existing != nil {
		return validation.Fail(fieldLote, validation.CodeDuplicate, "ya existe un lote con el código "+f.in.LotCode), nil
	}
	return nil, nil
}

// RegisterPurchaseIntake registra el ingreso de un lote comprado a un proveedor.
func (svc *Service) RegisterPurchaseIntake(ctx context.Context, in IntakeInput) (*Result, error) {
	return svc.intake(ctx, "ingreso_compra", entity.MotiveCompra, in)
}

// RegisterOwnProduction registra el ingreso de un lote de producción propia.
func (svc *Service) RegisterOwnProduction(ctx context.Context, in IntakeInput) (*Result, error) {
	return svc.intake(ctx, "ingreso_produccion", entity.MotiveProduccionPropia, in)
}

func (svc *Service) intake(ctx context.Context, op string, motive entity.Motive, in IntakeInput) (*Result, error) {
	return svc.execute(ctx, op, func(ctx context.Context, b *base) (*Result, error) {
		f := &intakeForm{base: b, in: in, motive: motive}
		errs, err := validation.Chain(ctx, f, f.steps()...)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}
		return f.apply(ctx)
	})
}

func (f *intakeForm) apply(ctx context.Context) (*Result, error) {
	in := f.in
	l := &entity.Lot{
		ID:                     uuid.New().String(),
		Code:                   in.LotCode,
		ProductID:              in.ProductID,
		SupplierID:             in.SupplierID,
		ManufacturerID:         in.ManufacturerID,
		OriginCountry:          in.OriginCountry,
		SupplierLotCode:        in.SupplierLotCode,
		IntakeDate:             *in.IntakeDate,
		SupplierExpiryDate:     in.SupplierExpiryDate,
		SupplierReanalysisDate: in.SupplierReanalysisDate,
		OriginMotive:           f.motive,
		PackageCount:           in.PackageCount,
		Verdict:                entity.VerdictRecibido,
		InitialQuantity:        in.Quantity,
		Quantity:               in.Quantity,
		Unit:                   in.Unit,
		Traceable:              in.Traceable,
		Active:                 true,
		CreatedAt:              f.now,
	}
	packages := make([]*entity.Package, 0, in.PackageCount)
	for i, q := range in.PackageQuantities {
		packages = append(packages, &entity.Package{
			ID:              uuid.New().String(),
			LotID:           l.ID,
			Number:          i + 1,
			InitialQuantity: q.Amount,
			Quantity:        q.Amount,
			Unit:            q.Unit,
			State:           entity.PackageStateNuevo,
			Active:          true,
		})
	}
	f.st = &lotState{lot: l, packages: packages}

	var variant movement.Variant = movement.Purchase{Packages: packages}
	if f.motive == entity.MotiveProduccionPropia {
		variant = movement.OwnProduction{Packages: packages}
	}
	m, err := movement.Build(f.common(in.IntakeDate, in.Notes), variant)
	if err != nil {
		return nil, err
	}
	return f.commit(ctx, m)
}
