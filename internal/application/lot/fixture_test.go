package lot_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clock *lot.FixedClock
	svc   *lot.Service
	admin context.Context
	// analista y auditor actúan con roles de menor nivel.
	analista context.Context
	auditor  context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clock := &lot.FixedClock{At: t0}
	err := store.Run(context.Background(), func(s lot.Stores) error {
		for _, p := range []*entity.Product{
			{ID: "prod-1", Code: "MP-001", Name: "Paracetamol", Unit: unit.Kilogramo, Active: true, CreatedAt: t0},
			{ID: "prod-2", Code: "EN-010", Name: "Frasco 100 ml", Unit: unit.Unidad, Active: true, CreatedAt: t0},
			{ID: "prod-off", Code: "MP-999", Name: "Discontinuado", Unit: unit.Kilogramo, Active: false, CreatedAt: t0},
		} {
			if err := s.Products.Save(context.Background(), p); err != nil {
				return err
			}
		}
		for _, o := range []*entity.Operator{
			{ID: "op-admin", Email: "admin@planta.test", Role: entity.RoleAdmin, Status: entity.OperatorStatusActive},
			{ID: "op-analista", Email: "analista@planta.test", Role: entity.RoleAnalistaControlCalidad, Status: entity.OperatorStatusActive},
			{ID: "op-auditor", Email: "auditor@planta.test", Role: entity.RoleAuditor, Status: entity.OperatorStatusActive},
		} {
			if err := s.Operators.Save(context.Background(), o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	return &fixture{
		store:    store,
		clock:    clock,
		svc:      lot.NewService(store, clock, nil),
		admin:    lot.WithActor(context.Background(), lot.Actor{ID: "op-admin", Role: entity.RoleAdmin}),
		analista: lot.WithActor(context.Background(), lot.Actor{ID: "op-analista", Role: entity.RoleAnalistaControlCalidad}),
		auditor:  lot.WithActor(context.Background(), lot.Actor{ID: "op-auditor", Role: entity.RoleAuditor}),
	}
}

// today devuelve la fecha del reloj desplazada offset días.
func (f *fixture) today(offset int) *time.Time {
	return ptr(f.clock.Now().AddDate(0, 0, offset))
}

// tick avanza el reloj para que cada movimiento tenga su propio instante.
func (f *fixture) tick() { f.clock.Advance(time.Minute) }

func (f *fixture) purchaseInput(code string) lot.IntakeInput {
	return lot.IntakeInput{
		LotCode:      code,
		ProductID:    "prod-1",
		SupplierID:   "prov-1",
		IntakeDate:   f.today(0),
		PackageCount: 2,
		Quantity:     d("10"),
		Unit:         unit.Kilogramo,
		PackageQuantities: []unit.Quantity{
			unit.Of(d("5"), unit.Kilogramo),
			unit.Of(d("5"), unit.Kilogramo),
		},
	}
}

// intake registra un lote de 2 bultos de 5 kg.
func (f *fixture) intake(t *testing.T, code string) *lot.Result {
	t.Helper()
	res, err := f.svc.RegisterPurchaseIntake(f.admin, f.purchaseInput(code))
	require.NoError(t, err)
	require.True(t, res.OK(), "el ingreso debe registrarse: %v", res.Errors)
	f.tick()
	return res
}

// sample toma 500 g del bulto 2 abriendo el análisis number.
func (f *fixture) sample(t *testing.T, code, number string) *lot.Result {
	t.Helper()
	res, err := f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode:        code,
		Line:           lot.PackageLine{PackageNumber: 2, Quantity: d("500"), Unit: unit.Gramo},
		Date:           f.today(0),
		AnalysisNumber: number,
	})
	require.NoError(t, err)
	require.True(t, res.OK(), "el muestreo debe registrarse: %v", res.Errors)
	f.tick()
	return res
}

func (f *fixture) approvedInput(code, number, titer string) lot.AnalysisResultInput {
	return lot.AnalysisResultInput{
		LotCode:        code,
		AnalysisNumber: number,
		Verdict:        entity.VerdictAprobado,
		Date:           f.today(0),
		RealizedDate:   f.today(0),
		ExpiryDate:     f.today(30),
		Titer:          ptr(d(titer)),
	}
}

func (f *fixture) approve(t *testing.T, code, number, titer string) *lot.Result {
	t.Helper()
	res, err := f.svc.RegisterAnalysisResult(f.admin, f.approvedInput(code, number, titer))
	require.NoError(t, err)
	require.True(t, res.OK(), "el análisis debe registrarse: %v", res.Errors)
	f.tick()
	return res
}

func (f *fixture) release(t *testing.T, code string) *lot.Result {
	t.Helper()
	res, err := f.svc.ReleaseLot(f.admin, lot.VerdictChangeInput{LotCode: code, Date: f.today(0)})
	require.NoError(t, err)
	require.True(t, res.OK(), "la liberación debe registrarse: %v", res.Errors)
	f.tick()
	return res
}

// released deja un lote de 9.5 kg liberado.
func (f *fixture) released(t *testing.T, code string) {
	t.Helper()
	f.intake(t, code)
	f.sample(t, code, "A-"+code)
	f.approve(t, code, "A-"+code, "98")
	f.release(t, code)
}

func (f *fixture) sale(code string, pkg int, qty string) lot.DistributionInput {
	return lot.DistributionInput{
		LotCode:  code,
		Date:     f.today(0),
		Quantity: d(qty),
		Unit:     unit.Kilogramo,
		Lines:    []lot.PackageLine{{PackageNumber: pkg, Quantity: d(qty), Unit: unit.Kilogramo}},
	}
}
