package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/movement"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// VerdictChangeInput describe un cambio de dictamen sin cantidades (liberación, retiro, vencimiento).
type VerdictChangeInput struct {
	LotCode string
	Date    *time.Time
	Notes   *string
}

type verdictForm struct {
	*base
	in VerdictChangeInput
}

func (f *verdictForm) resolve() validation.Step[*verdictForm] {
	return func(ctx context.Context, f *verdictForm) (validation.Errors, error) { return f.resolveLot(ctx, f.in.LotCode) }
}

func (f *verdictForm) date() validation.Step[*verdictForm] {
	return validation.Check(func(f *verdictForm) validation.Errors { return f.movementDate(f.in.Date) })
}

func (f *verdictForm) verdict(allowed ...entity.Verdict) validation.Step[*verdictForm] {
	return validation.Check(func(f *verdictForm) validation.Errors { return f.verdictIn(allowed...) })
}

// changeVerdict corre la cadena y, si pasa, registra el movimiento que construye variant.
func (svc *Service) changeVerdict(
	ctx context.Context, op string, in VerdictChangeInput,
	steps func(f *verdictForm) []validation.Step[*verdictForm],
	variant func(current entity.Verdict) movement.Variant,
) (*Result, error) {
	return svc.execute(ctx, op, func(ctx context.Context, b *base) (*Result, error) {
		f := &verdictForm{base: b, in: in}
		errs, err := validation.Chain(ctx, f, steps(f)...)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return rejected(errs), nil
		}
		m, err := movement.Build(f.common(in.Date, in.Notes), variant(f.st.lot.Verdict))
		if err != nil {
			return nil, err
		}
		f.st.lot.Verdict = m.FinalVerdict
		return f.commit(ctx, m)
	})
}

// ReleaseLot libera un lote aprobado para la venta.
func (svc *Service) ReleaseLot(ctx context.Context, in VerdictChangeInput) (*Result, error) {
	return svc.changeVerdict(ctx, "liberacion", in,
		func(f *verdictForm) []validation.Step[*verdictForm] {
			return []validation.Step[*verdictForm]{
				f.resolve(),
				f.verdict(entity.VerdictAprobado),
				f.date(),
				validation.Check(func(f *verdictForm) validation.Errors { return f.notExpiredAt(*f.in.Date) }),
			}
		},
		func(current entity.Verdict) movement.Variant { return movement.Release{InitialVerdict: current} },
	)
}

// RegisterMarketRecall retira del mercado un lote liberado o devuelto por clientes.
func (svc *Service) RegisterMarketRecall(ctx context.Context, in VerdictChangeInput) (*Result, error) {
	return svc.changeVerdict(ctx, "retiro_mercado", in,
		func(f *verdictForm) []validation.Step[*verdictForm] {
			return []validation.Step[*verdictForm]{
				f.resolve(),
				f.verdict(entity.VerdictLiberado, entity.VerdictDevolucionClientes),
				f.date(),
			}
		},
		func(current entity.Verdict) movement.Variant { return movement.MarketRecall{InitialVerdict: current} },
	)
}

// RegisterExpiry vence un lote en cuarentena o aprobado cuya fecha límite ya pasó.
func (svc *Service) RegisterExpiry(ctx context.Context, in VerdictChangeInput) (*Result, error) {
	return svc.changeVerdict(ctx, "vencimiento", in,
		func(f *verdictForm) []validation.Step[*verdictForm] {
			return []validation.Step[*verdictForm]{
				f.resolve(),
				f.verdict(entity.VerdictCuarentena, entity.VerdictAprobado),
				f.date(),
				validation.Check(func(f *verdictForm) validation.Errors {
					limit := f.st.lot.EffectiveExpiry()
					if limit == nil || !isDue(*limit, *f.in.Date) {
						return validation.Fail(fieldFecha, validation.CodeDate, "el lote no está vencido a esa fecha")
					}
					return nil
				}),
			}
		},
		func(current entity.Verdict) movement.Variant { return movement.Expiry{InitialVerdict: current} },
	)
}

// ExpireDue vence todos los lotes en cuarentena o aprobados cuya fecha límite es anterior
// a asOf. Devuelve los vencimientos registrados. Corre en el momento; no hay tarea de fondo.
// Una fecha de corte futura es ErrInvalidInput: ningún vencimiento puede fecharse después de hoy.
func (svc *Service) ExpireDue(ctx context.Context, asOf time.Time) ([]*Result, error) {
	if validation.Day(asOf).After(validation.Day(svc.clock.Now())) {
		return nil, fmt.Errorf("%w: la fecha de corte %s es futura", domain.ErrInvalidInput, asOf.Format("2006-01-02"))
	}
	var due []string
	err := svc.tx.Run(ctx, func(s Stores) error {
		lots, err := s.Lots.ListActiveByVerdict(ctx, entity.VerdictCuarentena, entity.VerdictAprobado)
		if err != nil {
			return fmt.Errorf("listar lotes a vencer: %w", err)
		}
		for _, l := range lots {
			if limit := l.EffectiveExpiry(); limit != nil && isDue(*limit, asOf) {
				due = append(due, l.Code)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(due))
	rejectedCount := 0
	for _, code := range due {
		res, err := svc.RegisterExpiry(ctx, VerdictChangeInput{LotCode: code, Date: &asOf})
		if err != nil {
			return out, err
		}
		if !res.OK() {
			rejectedCount++
			svc.log.Warn().Str("lote", code).Str("campo", res.Errors[0].Field).
				Str("motivo", res.Errors[0].Message).Msg("vencimiento no registrado")
			continue
		}
		out = append(out, res)
	}
	svc.log.Info().Int("vencidos", len(out)).Int("rechazados", rejectedCount).Time("al", asOf).Msg("vencimiento de lotes")
	return out, nil
}

func isDue(limit, asOf time.Time) bool {
	return validation.Day(limit).Before(validation.Day(asOf))
}

// Now devuelve el instante del reloj del servicio.
func (svc *Service) Now() time.Time { return svc.clock.Now() }
