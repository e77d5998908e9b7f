package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/ledger"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// SamplingInput describe la toma de una muestra sobre un bulto.
// Con AnalysisNumber se abre un análisis y el lote pasa a cuarentena.
type SamplingInput struct {
	LotCode        string
	Line           PackageLine
	Date           *time.Time
	AnalysisNumber string
	Notes          *string
}

type samplingForm struct {
	*base
	in    SamplingInput
	line  movement.Line
	final entity.Verdict
}

func (f *samplingForm) steps() []validation.Step[*samplingForm] {
	return []validation.Step[*samplingForm]{
		func(ctx context.Context, f *samplingForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) },
		validation.Check(func(f *samplingForm) validation.Errors {
			switch f.st.lot.Verdict {
			case entity.VerdictVencido, entity.VerdictRetiroMercado:
				return validation.Fail(fieldDictamenLote, validation.CodeState,
					fmt.Sprintf("no se puede muestrear un lote en dictamen %s", f.st.lot.Verdict))
			}
			return nil
		}),
		func(_ context.Context, f *samplingForm) (validation.Errors, error) {
			line, errs, err := f.packageLine(fieldCantidad, f.in.Line)
			f.line = line
			return errs, err
		},
		validation.Check(func(f *samplingForm) validation.Errors { return f.movementDate(f.in.Date) }),
		func(ctx context.Context, f *samplingForm) (validation.Errors, error) { return f.checkAnalysis(ctx) },
	}
}

// checkAnalysis: número único, ningún análisis en curso y un dictamen desde el que se pueda
// volver a cuarentena.
func (f *samplingForm) checkAnalysis(ctx context.Context) (validation.Errors, error) {
	if f.in.AnalysisNumber == "" {
		return nil, nil
	}
	existing, err := f.s.Analyses.FindByNumber(ctx, f.in.AnalysisNumber)
	if err != nil {
		return nil, fmt.Errorf("buscar análisis: %w", err)
	}
	if existing != nil {
		return validation.Fail(fieldNumeroAnalisis, validation.CodeDuplicate,
			"ya existe un análisis con el número "+f.in.AnalysisNumber), nil
	}
	open, err := ledger.InProgressAnalysis(f.st.lot.ID, f.st.analyses)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return validation.Fail(fieldNumeroAnalisis, validation.CodeState,
			"el lote ya tiene el análisis "+open.Number+" en curso"), nil
	}
	current := f.st.lot.Verdict
	if current != entity.VerdictCuarentena && !current.CanTransitionTo(entity.VerdictCuarentena) {
		return validation.Fail(fieldDictamenLote, validation.CodeState,
			fmt.Sprintf("un lote en dictamen %s no puede volver a cuarentena", current)), nil
	}
	f.final = entity.VerdictCuarentena
	return nil, nil
}

// RegisterSampling registra una toma de muestra (baja sobre un bulto).
func (svc *Service) RegisterSampling(ctx context.Context, in SamplingInput) (*Result, error) {
	return svc.execute(ctx, "muestreo", func(ctx context.Context, b *base) (*Result, error) {
		f := &samplingForm{base: b, in: in}
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

func (f *samplingForm) apply(ctx context.Context) (*Result, error) {
	v := movement.Sampling{Line: f.line, AnalysisNumber: f.in.AnalysisNumber}
	var analysis *entity.Analysis
	if f.in.AnalysisNumber != "" {
		v.InitialVerdict, v.FinalVerdict = f.st.lot.Verdict, f.final
		analysis = &entity.Analysis{
			ID:            uuid.New().String(),
			LotID:         f.st.lot.ID,
			Number:        f.in.AnalysisNumber,
			RequestedDate: *f.in.Date,
			Active:        true,
			CreatedAt:     f.now,
		}
	}
	m, err := movement.Build(f.common(f.in.Date, f.in.Notes), v)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		f.st.lot.Verdict = f.final
	}
	res, err := f.commit(ctx, m)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		if err := f.s.Analyses.Save(ctx, analysis); err != nil {
			return nil, fmt.Errorf("guardar análisis: %w", err)
		}
		res.Analysis = analysis
	}
	return res, nil
}
