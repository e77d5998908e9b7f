package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/ledger"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// AnalysisResultInput describe el dictamen de un análisis en curso.
type AnalysisResultInput struct {
	LotCode        string
	AnalysisNumber string
	Verdict        entity.Verdict // APROBADO o RECHAZADO
	Date           *time.Time     // fecha del movimiento
	RealizedDate   *time.Time
	ReanalysisDate *time.Time
	ExpiryDate     *time.Time
	Titer          *decimal.Decimal
	Notes          *string
}

type analysisForm struct {
	*base
	in       AnalysisResultInput
	analysis *entity.Analysis
	approved *entity.Analysis // último aprobado previo, nil en el primer análisis
}

func (f *analysisForm) isApproved() bool { return f.in.Verdict == entity.VerdictAprobado }

// steps aplica los chequeos en este orden exacto; el primero que falla corta la cadena.
func (f *analysisForm) steps() []validation.Step[*analysisForm] {
	return []validation.Step[*analysisForm]{
		// 1. número de análisis
		validation.Check(func(f *analysisForm) validation.Errors {
			return validation.RequiredString(fieldNumeroAnalisis, f.in.AnalysisNumber, "ingrese el número de análisis")
		}),
		// 2. dictamen final
		validation.Check(func(f *analysisForm) validation.Errors {
			if errs := validation.RequiredString(fieldDictamen, string(f.in.Verdict), "ingrese el dictamen"); errs.HasErrors() {
				return errs
			}
			if f.in.Verdict != entity.VerdictAprobado && f.in.Verdict != entity.VerdictRechazado {
				return validation.Fail(fieldDictamen, validation.CodeInvalid, "el dictamen de un análisis es APROBADO o RECHAZADO")
			}
			return nil
		}),
		// 3. fecha de realización
		validation.Check(func(f *analysisForm) validation.Errors {
			return validation.RequiredTime(fieldFechaRealizado, f.in.RealizedDate, "ingrese la fecha de realización del análisis")
		}),
		// 4. fechas de reanálisis / vencimiento
		validation.Check((*analysisForm).checkApprovedDates),
		// 5. título
		validation.Check(func(f *analysisForm) validation.Errors {
			if !f.isApproved() {
				return nil
			}
			if errs := validation.RequiredDecimal(fieldTitulo, f.in.Titer, "ingrese el título"); errs.HasErrors() {
				return errs
			}
			return validation.TiterInRange(fieldTitulo, *f.in.Titer)
		}),
		// 6. lote
		func(ctx context.Context, f *analysisForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) },
		// 7. muestreo en curso con este número
		func(_ context.Context, f *analysisForm) (validation.Errors, error) { return f.checkInProgress() },
		// 8. fecha del movimiento
		validation.Check(func(f *analysisForm) validation.Errors { return f.movementDate(f.in.Date) }),
		// 9. fecha de realización
		validation.Check(func(f *analysisForm) validation.Errors {
			if errs := validation.NotBefore(fieldFechaRealizado, *f.in.RealizedDate, f.st.lot.IntakeDate,
				"la fecha de realización no puede ser anterior al ingreso del lote"); errs.HasErrors() {
				return errs
			}
			return validation.NotAfter(fieldFechaRealizado, *f.in.RealizedDate, f.now,
				"la fecha de realización no puede ser futura")
		}),
		// 10. fechas del proveedor
		validation.Check((*analysisForm).checkSupplierDates),
		// 11. el título no mejora
		validation.Check((*analysisForm).checkTiter),
	}
}

func (f *analysisForm) checkApprovedDates() validation.Errors {
	if !f.isApproved() {
		return nil
	}
	re, exp := f.in.ReanalysisDate, f.in.ExpiryDate
	if re == nil && exp == nil {
		return validation.Fail(fieldFechaReanalisis, validation.CodeRequired,
			"ingrese la fecha de reanálisis o la de vencimiento")
	}
	if re != nil && exp != nil {
		return validation.NotAfter(fieldFechaReanalisis, *re, *exp,
			"el reanálisis no puede ser posterior al vencimiento")
	}
	return nil
}

func (f *analysisForm) checkInProgress() (validation.Errors, error) {
	open, err := ledger.InProgressAnalysis(f.st.lot.ID, f.st.analyses)
	if err != nil {
		return nil, err
	}
	notFound := validation.Fail(fieldNumeroAnalisis, validation.CodeNotFound,
		"no hay un muestreo en curso para el análisis "+f.in.AnalysisNumber)
	if open == nil || open.Number != f.in.AnalysisNumber {
		return notFound, nil
	}
	sampled := false
	for _, m := range f.st.movements {
		if m.Active && m.Motive == entity.MotiveMuestreo && m.AnalysisNumber == f.in.AnalysisNumber {
			sampled = true
			break
		}
	}
	if !sampled {
		return notFound, nil
	}
	if errs := f.verdictIn(entity.VerdictCuarentena); errs.HasErrors() {
		return errs, nil
	}
	f.analysis = open
	f.approved = ledger.LastApprovedAnalysis(f.st.analyses)
	return nil, nil
}

func (f *analysisForm) checkSupplierDates() validation.Errors {
	if !f.isApproved() {
		return nil
	}
	l := f.st.lot
	if limit := l.SupplierExpiryDate; limit != nil {
		if d := f.in.ReanalysisDate; d != nil {
			if errs := validation.NotAfter(fieldFechaReanalisis, *d, *limit,
				"el reanálisis no puede superar el vencimiento del proveedor"); errs.HasErrors() {
				return errs
			}
		}
		if d := f.in.ExpiryDate; d != nil {
			if errs := validation.NotAfter(fieldFechaVencimiento, *d, *limit,
				"el vencimiento no puede superar el vencimiento del proveedor"); errs.HasErrors() {
				return errs
			}
		}
	}
	// Primer análisis aprobado: el reanálisis tampoco puede superar el reanálisis del proveedor.
	if f.approved == nil && l.SupplierReanalysisDate != nil && f.in.ReanalysisDate != nil {
		return validation.NotAfter(fieldFechaReanalisis, *f.in.ReanalysisDate, *l.SupplierReanalysisDate,
			"en el primer análisis el reanálisis no puede superar el reanálisis del proveedor")
	}
	return nil
}

func (f *analysisForm) checkTiter() validation.Errors {
	if !f.isApproved() || f.approved == nil || f.approved.Titer == nil {
		return nil
	}
	if f.in.Titer.GreaterThan(*f.approved.Titer) {
		return validation.Fail(fieldTitulo, validation.CodeOutOfRange, fmt.Sprintf(
			"el título no puede superar el del último análisis aprobado (%s)", f.approved.Titer.String()))
	}
	return nil
}

// RegisterAnalysisResult registra el dictamen del análisis en curso del lote.
func (svc *Service) RegisterAnalysisResult(ctx context.Context, in AnalysisResultInput) (*Result, error) {
	return svc.execute(ctx, "resultado_analisis", func(ctx context.Context, b *base) (*Result, error) {
		f := &analysisForm{base: b, in: in}
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

func (f *analysisForm) apply(ctx context.Context) (*Result, error) {
	l := f.st.lot
	m, err := movement.Build(f.common(f.in.Date, f.in.Notes), movement.AnalysisResult{
		AnalysisNumber: f.in.AnalysisNumber,
		InitialVerdict: l.Verdict,
		FinalVerdict:   f.in.Verdict,
	})
	if err != nil {
		return nil, err
	}

	a := f.analysis
	a.Verdict = f.in.Verdict
	a.RealizedDate = f.in.RealizedDate
	if f.isApproved() {
		a.Titer = f.in.Titer
		a.ReanalysisDate, a.ExpiryDate = f.in.ReanalysisDate, f.in.ExpiryDate
		l.ReanalysisDate, l.ExpiryDate = f.in.ReanalysisDate, f.in.ExpiryDate
	}
	l.Verdict = f.in.Verdict

	res, err := f.commit(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := f.s.Analyses.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("guardar análisis: %w", err)
	}
	res.Analysis = a
	return res, nil
}
