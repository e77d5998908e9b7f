package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/ledger"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// ReversalInput identifica el movimiento a revertir por código o ID.
type ReversalInput struct {
	MovementRef string
	Date        *time.Time
	Notes       *string
}

type reversalForm struct {
	*base
	in     ReversalInput
	origin *entity.Movement
}

func (f *reversalForm) steps() []validation.Step[*reversalForm] {
	return []validation.Step[*reversalForm]{
		func(ctx context.Context, f *reversalForm) (validation.Errors, error) { return f.findOrigin(ctx) },
		validation.Check(func(f *reversalForm) validation.Errors {
			if !f.origin.Active {
				return validation.Fail(fieldMovimiento, validation.CodeState, "el movimiento ya fue revertido")
			}
			if f.origin.Motive == entity.MotiveReverso {
				return validation.Fail(fieldMovimiento, validation.CodeState, "una reversa no puede revertirse")
			}
			return nil
		}),
		func(ctx context.Context, f *reversalForm) (validation.Errors, error) {
			st, err := loadState(ctx, f.s, f.origin.LotID)
			if err != nil {
				return nil, err
			}
			f.st = st
			return nil, nil
		},
		validation.Check((*reversalForm).checkLatest),
		func(ctx context.Context, f *reversalForm) (validation.Errors, error) { return f.checkAuthorization(ctx) },
		validation.Check(func(f *reversalForm) validation.Errors {
			if f.in.Date == nil {
				return nil
			}
			if errs := f.movementDate(f.in.Date); errs.HasErrors() {
				return errs
			}
			return validation.NotBefore(fieldFecha, *f.in.Date, f.origin.Date,
				"la reversa no puede ser anterior al movimiento revertido")
		}),
	}
}

// findOrigin resuelve el movimiento. Si no existe la operación aborta con MovementNotFoundError.
func (f *reversalForm) findOrigin(ctx context.Context) (validation.Errors, error) {
	if errs := validation.RequiredString(fieldMovimiento, f.in.MovementRef, "indique el movimiento a revertir"); errs.HasErrors() {
		return errs, nil
	}
	m, err := f.s.Movements.FindByID(ctx, f.in.MovementRef)
	if err != nil {
		return nil, fmt.Errorf("buscar movimiento: %w", err)
	}
	if m == nil {
		if m, err = f.s.Movements.FindByCode(ctx, f.in.MovementRef); err != nil {
			return nil, fmt.Errorf("buscar movimiento: %w", err)
		}
	}
	if m == nil {
		return nil, &domain.MovementNotFoundError{Ref: f.in.MovementRef}
	}
	f.origin = m
	return nil, nil
}

// checkLatest: sólo se revierte el último movimiento vigente del lote.
func (f *reversalForm) checkLatest() validation.Errors {
	var latest *entity.Movement
	for _, m := range f.st.movements {
		if !m.Active || m.Motive == entity.MotiveReverso {
			continue
		}
		if latest == nil || !m.CreatedAt.Before(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil || latest.ID != f.origin.ID {
		return validation.Fail(fieldMovimiento, validation.CodeState,
			"sólo puede revertirse el último movimiento vigente del lote")
	}
	return nil
}

// checkAuthorization: el operador debe tener nivel igual o superior al autor del movimiento.
func (f *reversalForm) checkAuthorization(ctx context.Context) (validation.Errors, error) {
	var authorRole entity.Role
	if f.origin.AuthorID != "" {
		author, err := f.s.Operators.FindByID(ctx, f.origin.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("buscar autor: %w", err)
		}
		if author != nil {
			authorRole = author.Role
		}
	}
	if !entity.HasSuperiorOrEqualLevel(f.actor.Role, authorRole) {
		return validation.Fail(fieldMovimiento, validation.CodeForbidden, fmt.Sprintf(
			"un operador %s no puede revertir movimientos de un %s", f.actor.Role, authorRole)), nil
	}
	return nil, nil
}

// ReverseMovement anula el último movimiento vigente de un lote. Restaura el dictamen
// previo, deshace los efectos sobre análisis y, si se revierte el ingreso, desactiva el lote.
func (svc *Service) ReverseMovement(ctx context.Context, in ReversalInput) (*Result, error) {
	return svc.execute(ctx, "reverso", func(ctx context.Context, b *base) (*Result, error) {
		f := &reversalForm{base: b, in: in}
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

func (f *reversalForm) apply(ctx context.Context) (*Result, error) {
	l, origin := f.st.lot, f.origin

	restored := l.Verdict
	if origin.InitialVerdict != "" {
		restored = origin.InitialVerdict
	}
	m, err := movement.Build(f.common(f.in.Date, f.in.Notes), movement.Reversal{
		Origin:         origin,
		InitialVerdict: l.Verdict,
		FinalVerdict:   restored,
	})
	if err != nil {
		return nil, err
	}
	l.Verdict = restored

	for _, sm := range f.st.movements {
		if sm.ID == origin.ID {
			sm.Active = false
		}
	}
	if err := f.s.Movements.Deactivate(ctx, origin.ID); err != nil {
		return nil, fmt.Errorf("desactivar movimiento: %w", err)
	}

	touched, err := f.undoAnalysis()
	if err != nil {
		return nil, err
	}

	switch origin.Motive {
	case entity.MotiveCompra, entity.MotiveProduccionPropia:
		l.Active = false
		for _, p := range f.st.packages {
			p.Active = false
		}
	}

	res, err := f.commit(ctx, m)
	if err != nil {
		return nil, err
	}
	if touched != nil {
		if err := f.s.Analyses.Save(ctx, touched); err != nil {
			return nil, fmt.Errorf("guardar análisis: %w", err)
		}
		res.Analysis = touched
	}
	return res, nil
}

// undoAnalysis deshace el efecto del movimiento revertido sobre su análisis:
// un muestreo anula el análisis que abrió; un resultado lo vuelve a dejar en curso y
// el lote recupera las fechas del aprobado anterior.
func (f *reversalForm) undoAnalysis() (*entity.Analysis, error) {
	origin := f.origin
	if origin.AnalysisNumber == "" {
		return nil, nil
	}
	var a *entity.Analysis
	for _, x := range f.st.analyses {
		if x.Number == origin.AnalysisNumber && x.Active {
			a = x
		}
	}
	if a == nil {
		return nil, nil
	}

	switch origin.Motive {
	case entity.MotiveMuestreo:
		a.Active = false
	case entity.MotiveAnalisis:
		a.Verdict = ""
		a.RealizedDate = nil
		a.Titer = nil
		a.ReanalysisDate, a.ExpiryDate = nil, nil
		if _, err := ledger.InProgressAnalysis(f.st.lot.ID, f.st.analyses); err != nil {
			return nil, err
		}
		l := f.st.lot
		l.ReanalysisDate, l.ExpiryDate = nil, nil
		if prev := ledger.LastApprovedAnalysis(f.st.analyses); prev != nil {
			l.ReanalysisDate, l.ExpiryDate = prev.ReanalysisDate, prev.ExpiryDate
		}
	default:
		return nil, nil
	}
	return a, nil
}
