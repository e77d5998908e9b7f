// Package lot implementa las operaciones de negocio sobre lotes: ingresos, muestreos,
// análisis, liberación, salidas, devoluciones, retiros, vencimientos y reversas.
//
// Cada operación corre dentro de una transacción: valida contra el estado vigente del
// lote (cadena de validación), arma el movimiento, recalcula saldos y trazas desde el
// historial y persiste todo junto.
package lot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/ledger"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
	"github.com/jhoicas/Lotes-api/pkg/logger"
)

// Campos de formulario a los que se asocian los errores de validación.
const (
	fieldLote             = "codigoLote"
	fieldProducto         = "producto"
	fieldProveedor        = "proveedor"
	fieldFechaIngreso     = "fechaIngreso"
	fieldVencProveedor    = "fechaVencimientoProveedor"
	fieldReanalProveedor  = "fechaReanalisisProveedor"
	fieldCantidadBultos   = "cantidadBultos"
	fieldCantidad         = "cantidad"
	fieldUnidad           = "unidad"
	fieldCantidadesBultos = "cantidadesBultos"
	fieldBulto            = "bulto"
	fieldFecha            = "fechaMovimiento"
	fieldNumeroAnalisis   = "numeroAnalisis"
	fieldDictamen         = "dictamenFinal"
	fieldFechaRealizado   = "fechaRealizado"
	fieldFechaReanalisis  = "fechaReanalisis"
	fieldFechaVencimiento = "fechaVencimiento"
	fieldTitulo           = "titulo"
	fieldObservaciones    = "observaciones"
	fieldMovimiento       = "movimiento"
	fieldDictamenLote     = "dictamen"
)

// Result es el resultado de una operación: el movimiento y el lote resultantes, o los
// errores de validación que la rechazaron.
type Result struct {
	Movement *entity.Movement
	Lot      *entity.Lot
	Packages []*entity.Package
	Analysis *entity.Analysis
	Errors   validation.Errors
}

// OK indica si la operación se registró.
func (r *Result) OK() bool { return r != nil && !r.Errors.HasErrors() }

func rejected(errs validation.Errors) *Result { return &Result{Errors: errs} }

// Observer recibe el desenlace de cada operación (métricas).
type Observer interface {
	Registered(op string, m *entity.Movement)
	Rejected(op string, errs validation.Errors)
	Failed(op string, err error)
}

type nopObserver struct{}

func (nopObserver) Registered(string, *entity.Movement) {}
func (nopObserver) Rejected(string, validation.Errors) {}
func (nopObserver) Failed(string, error) {}

// Service expone las operaciones sobre lotes.
type Service struct {
	tx       TxRunner
	clock    Clock
	log      *logger.Logger
	observer Observer
}

// NewService construye el servicio.
func NewService(tx TxRunner, clock Clock, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, clock: clock, log: log, observer: nopObserver{}}
}

// WithObserver registra el observador de operaciones.
func (svc *Service) WithObserver(o Observer) *Service {
	if o != nil {
		svc.observer = o
	}
	return svc
}

// execute corre fn dentro de una transacción con el operador y el instante de la operación.
func (svc *Service) execute(ctx context.Context, op string, fn func(ctx context.Context, b *base) (*Result, error)) (*Result, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	b := &base{now: svc.clock.Now(), actor: actor}

	var res *Result
	err = svc.tx.Run(ctx, func(s Stores) error {
		b.s = s
		r, err := fn(ctx, b)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	log := svc.log.Operation(op)
	if err != nil {
		ev := log.Error().Err(err).Str("operador", actor.ID)
		if errors.Is(err, domain.ErrIntegrity) {
			ev.Msg("ruptura de integridad del libro de lotes")
		} else {
			ev.Msg("operación fallida")
		}
		svc.observer.Failed(op, err)
		return nil, err
	}

	if !res.OK() {
		first := res.Errors[0]
		log.Warn().
			Str("campo", first.Field).
			Str("codigo", first.Code).
			Msg(first.Message)
		svc.observer.Rejected(op, res.Errors)
		return res, nil
	}
	log.Info().
		Str("lote", res.Lot.Code).
		Str("movimiento", res.Movement.Code).
		Str("motivo", string(res.Movement.Motive)).
		Str("dictamen", string(res.Lot.Verdict)).
		Str("cantidad", res.Lot.Quantity.String()).
		Msg("movimiento registrado")
	svc.observer.Registered(op, res.Movement)
	return res, nil
}

// lotState es el estado materializado de un lote antes de validar.
type lotState struct {
	lot       *entity.Lot
	packages  []*entity.Package
	movements []*entity.Movement
	analyses  []*entity.Analysis
	traces    []*entity.Trace
}

func (st *lotState) packageByNumber(n int) *entity.Package {
	for _, p := range st.packages {
		if p.Number == n {
			return p
		}
	}
	return nil
}

// loadState bloquea el lote y carga bultos, movimientos, análisis y trazas.
func loadState(ctx context.Context, s Stores, lotID string) (*lotState, error) {
	l, err := s.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("bloquear lote: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("lote %s: %w", lotID, domain.ErrNotFound)
	}
	st := &lotState{lot: l}
	if st.packages, err = s.Packages.ListByLot(ctx, lotID); err != nil {
		return nil, fmt.Errorf("listar bultos: %w", err)
	}
	if st.movements, err = s.Movements.ListByLot(ctx, lotID); err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	if st.analyses, err = s.Analyses.ListByLot(ctx, lotID); err != nil {
		return nil, fmt.Errorf("listar análisis: %w", err)
	}
	if st.traces, err = s.Traces.ListByLot(ctx, lotID); err != nil {
		return nil, fmt.Errorf("listar trazas: %w", err)
	}
	return st, nil
}

// base es el contexto compartido por los formularios de todas las operaciones.
type base struct {
	s     Stores
	now   time.Time
	actor Actor
	st    *lotState
}

// resolveLot busca el lote activo por código y lo deja cargado en b.st.
func (b *base) resolveLot(ctx context.Context, code string) (validation.Errors, error) {
	if errs := validation.RequiredString(fieldLote, code, "ingrese el código de lote"); errs.HasErrors() {
		return errs, nil
	}
	lots, err := b.s.Lots.FindAllActiveByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("buscar lote %s: %w", code, err)
	}
	if len(lots) == 0 {
		return validation.Fail(fieldLote, validation.CodeNotFound, "no existe un lote activo con el código "+code), nil
	}
	st, err := loadState(ctx, b.s, lots[0].ID)
	if err != nil {
		return nil, err
	}
	b.st = st
	return nil, nil
}

// verdictIn exige que el dictamen vigente sea uno de allowed.
func (b *base) verdictIn(allowed ...entity.Verdict) validation.Errors {
	for _, v := range allowed {
		if b.st.lot.Verdict == v {
			return nil
		}
	}
	return validation.Fail(fieldDictamenLote, validation.CodeState,
		fmt.Sprintf("la operación no está permitida con el lote en dictamen %s", b.st.lot.Verdict))
}

// movementDate exige la fecha del movimiento, no anterior al ingreso del lote ni futura.
func (b *base) movementDate(date *time.Time) validation.Errors {
	if errs := validation.RequiredTime(fieldFecha, date, "ingrese la fecha del movimiento"); errs.HasErrors() {
		return errs
	}
	if errs := validation.NotBefore(fieldFecha, *date, b.st.lot.IntakeDate,
		"la fecha del movimiento no puede ser anterior al ingreso del lote"); errs.HasErrors() {
		return errs
	}
	return validation.NotAfter(fieldFecha, *date, b.now, "la fecha del movimiento no puede ser futura")
}

// notExpiredAt exige que la fecha límite de uso del lote no sea anterior a date.
func (b *base) notExpiredAt(date time.Time) validation.Errors {
	limit := b.st.lot.EffectiveExpiry()
	if limit == nil {
		return nil
	}
	return validation.NotBefore(fieldFecha, *limit, date, "el lote está vencido o requiere reanálisis a esa fecha")
}

// PackageLine es la cantidad pedida sobre un bulto.
type PackageLine struct {
	PackageNumber int
	Quantity      decimal.Decimal
	Unit          unit.Unit
}

// packageLine valida una línea contra el bulto y su saldo y la convierte en movement.Line.
func (b *base) packageLine(field string, l PackageLine) (movement.Line, validation.Errors, error) {
	p := b.st.packageByNumber(l.PackageNumber)
	if p == nil || !p.Active {
		return movement.Line{}, validation.Fail(fieldBulto, validation.CodeNotFound,
			fmt.Sprintf("el bulto %d no existe en el lote", l.PackageNumber)), nil
	}
	if errs := validation.Positive(field, l.Quantity); errs.HasErrors() {
		return movement.Line{}, errs, nil
	}
	if errs := validation.CompatibleUnit(fieldUnidad, l.Unit, p.Unit); errs.HasErrors() {
		return movement.Line{}, errs, nil
	}
	if b.st.lot.Traceable {
		inPkg, err := unit.Convert(l.Unit, l.Quantity, p.Unit)
		if err != nil {
			return movement.Line{}, nil, err
		}
		if errs := validation.Integer(field, inPkg); errs.HasErrors() {
			return movement.Line{}, errs, nil
		}
	}
	errs, err := validation.Available(field, unit.Of(l.Quantity, l.Unit), unit.Of(p.Quantity, p.Unit))
	if err != nil || errs.HasErrors() {
		return movement.Line{}, errs, err
	}
	return movement.Line{Package: p, Quantity: l.Quantity, Unit: l.Unit}, nil, nil
}

func (b *base) common(date *time.Time, notes *string) movement.Common {
	c := movement.Common{
		CreatedAt: b.now,
		Date:      b.now,
		Lot:       b.st.lot,
		Notes:     notes,
		AuthorID:  b.actor.ID,
	}
	if date != nil {
		c.Date = *date
	}
	return c
}

// commit recalcula saldos y trazas con el nuevo movimiento y persiste el lote.
func (b *base) commit(ctx context.Context, m *entity.Movement) (*Result, error) {
	st := b.st
	st.movements = append(st.movements, m)
	if err := ledger.Recompute(st.lot, st.packages, st.movements); err != nil {
		return nil, err
	}
	traces, err := ledger.AssignTraces(st.lot, st.packages, st.traces)
	if err != nil {
		return nil, err
	}
	st.traces = traces

	if err := b.s.Lots.Save(ctx, st.lot); err != nil {
		return nil, fmt.Errorf("guardar lote: %w", err)
	}
	if err := b.s.Packages.SaveAll(ctx, st.packages); err != nil {
		return nil, fmt.Errorf("guardar bultos: %w", err)
	}
	if err := b.s.Movements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("guardar movimiento: %w", err)
	}
	if len(st.traces) > 0 {
		if err := b.s.Traces.SaveAll(ctx, st.traces); err != nil {
			return nil, fmt.Errorf("guardar trazas: %w", err)
		}
	}
	return &Result{Movement: m, Lot: st.lot, Packages: st.packages}, nil
}
