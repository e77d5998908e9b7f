package lot_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ingreso
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterPurchaseIntake_CreaLoteRecibido(t *testing.T) {
	f := newFixture(t)
	res := f.intake(t, "L-100")

	assert.Equal(t, entity.VerdictRecibido, res.Lot.Verdict)
	assert.True(t, res.Lot.Quantity.Equal(d("10")), "el lote debe tener 10 kg, tiene %s", res.Lot.Quantity)
	assert.Equal(t, entity.MotiveCompra, res.Movement.Motive)
	assert.Equal(t, entity.MovementKindAlta, res.Movement.Kind)
	assert.Len(t, res.Movement.Details, 2)
	require.Len(t, res.Packages, 2)
	for i, p := range res.Packages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, entity.PackageStateNuevo, p.State)
	}
	assert.True(t, strings.HasPrefix(res.Movement.Notes, "_INGRESO_COMPRA_\n"))
	assert.Equal(t, "op-admin", res.Movement.AuthorID)
}

func TestRegisterPurchaseIntake_ConservacionPorBulto(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-101")
	in.PackageQuantities[1] = unit.Of(d("4"), unit.Kilogramo)

	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.True(t, res.Errors.Has("cantidadesBultos"), "el error debe asociarse a cantidadesBultos: %v", res.Errors)
	assert.Equal(t, validation.CodeConservation, res.Errors[0].Code)

	_, err = f.svc.GetLot(f.admin, "L-101")
	assert.ErrorIs(t, err, domain.ErrNotFound, "un ingreso rechazado no debe dejar rastro")
}

func TestRegisterPurchaseIntake_ConservacionEntreUnidades(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-102")
	in.PackageQuantities = []unit.Quantity{
		unit.Of(d("5000"), unit.Gramo),
		unit.Of(d("5"), unit.Kilogramo),
	}

	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	assert.True(t, res.OK(), "5000 g + 5 kg conservan 10 kg: %v", res.Errors)
}

func TestRegisterPurchaseIntake_Rechazos(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(f *fixture, in *lot.IntakeInput)
		field string
		code  string
	}{
		{"producto inexistente", func(_ *fixture, in *lot.IntakeInput) { in.ProductID = "nope" }, "producto", validation.CodeNotFound},
		{"producto inactivo", func(_ *fixture, in *lot.IntakeInput) { in.ProductID = "prod-off" }, "producto", validation.CodeNotFound},
		{"sin proveedor", func(_ *fixture, in *lot.IntakeInput) { in.SupplierID = "" }, "proveedor", validation.CodeRequired},
		{"fecha futura", func(f *fixture, in *lot.IntakeInput) { in.IntakeDate = f.today(1) }, "fechaIngreso", validation.CodeDate},
		{"sin bultos", func(_ *fixture, in *lot.IntakeInput) { in.PackageCount = 0 }, "cantidadBultos", validation.CodeOutOfRange},
		{"unidad incompatible", func(_ *fixture, in *lot.IntakeInput) {
			in.PackageQuantities[0] = unit.Of(d("5"), unit.Litro)
		}, "cantidadesBultos", validation.CodeIncompatible},
		{"vencimiento no posterior al ingreso", func(f *fixture, in *lot.IntakeInput) {
			in.SupplierExpiryDate = f.today(0)
		}, "fechaVencimientoProveedor", validation.CodeDate},
		{"reanálisis posterior al vencimiento", func(f *fixture, in *lot.IntakeInput) {
			in.SupplierExpiryDate, in.SupplierReanalysisDate = f.today(10), f.today(20)
		}, "fechaReanalisisProveedor", validation.CodeDate},
		{"trazable en kilos", func(_ *fixture, in *lot.IntakeInput) { in.Traceable = true }, "unidad", validation.CodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.purchaseInput("L-200")
			tc.edit(f, &in)

			res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
			require.NoError(t, err)
			require.False(t, res.OK(), "el ingreso debe rechazarse")
			assert.Equal(t, tc.field, res.Errors[0].Field)
			assert.Equal(t, tc.code, res.Errors[0].Code)
		})
	}
}

func TestRegisterPurchaseIntake_CodigoDuplicado(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-300")

	res, err := f.svc.RegisterPurchaseIntake(f.admin, f.purchaseInput("L-300"))
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, validation.CodeDuplicate, res.Errors[0].Code)
}

func TestRegisterPurchaseIntake_GeneraCodigo(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.RegisterPurchaseIntake(f.admin, f.purchaseInput(""))
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, "L-MP-001-250310090000", res.Lot.Code)
}

func TestRegisterOwnProduction_SinProveedor(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-PP-1")
	in.SupplierID = ""

	res, err := f.svc.RegisterOwnProduction(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.MotiveProduccionPropia, res.Lot.OriginMotive)
	assert.True(t, strings.HasPrefix(res.Movement.Notes, "_INGRESO_PRODUCCION_\n"))
}

func TestExecute_SinOperador(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterPurchaseIntake(context.Background(), f.purchaseInput("L-1"))
	assert.ErrorIs(t, err, domain.ErrOperatorMissing)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo completo: ingreso, muestreo, análisis aprobado
// ──────────────────────────────────────────────────────────────────────────────

func TestCicloDeCalidad(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-001")

	sampled := f.sample(t, "L-001", "A-1")
	assert.Equal(t, entity.VerdictCuarentena, sampled.Lot.Verdict)
	assert.True(t, sampled.Lot.Quantity.Equal(d("9.5")), "tras el muestreo quedan 9.5 kg, quedan %s", sampled.Lot.Quantity)
	assert.Equal(t, entity.VerdictRecibido, sampled.Movement.InitialVerdict)
	assert.Equal(t, entity.VerdictCuarentena, sampled.Movement.FinalVerdict)
	assert.Contains(t, sampled.Movement.Code, "-P_2-", "un muestreo con análisis lleva código por bulto")
	assert.True(t, strings.HasPrefix(sampled.Movement.Notes, "_MUESTREO_\n"))
	require.NotNil(t, sampled.Analysis)
	assert.True(t, sampled.Analysis.InProgress())
	assert.True(t, sampled.Packages[1].Quantity.Equal(d("4.5")))
	assert.Equal(t, entity.PackageStateEnUso, sampled.Packages[1].State)
	require.Len(t, sampled.Movement.Details, 1)
	assert.Equal(t, unit.Kilogramo, sampled.Movement.Details[0].Unit, "el detalle se expresa en la unidad del bulto")
	assert.True(t, sampled.Movement.Details[0].Quantity.Equal(d("0.5")))

	approved := f.approve(t, "L-001", "A-1", "98")
	assert.Equal(t, entity.VerdictAprobado, approved.Lot.Verdict)
	assert.True(t, strings.HasPrefix(approved.Movement.Notes, "_RESULTADO_ANALISIS_\n"))
	require.NotNil(t, approved.Lot.ExpiryDate)
	assert.Equal(t, f.today(30).Format("2006-01-02"), approved.Lot.ExpiryDate.Format("2006-01-02"))
	assert.True(t, approved.Lot.Quantity.Equal(d("9.5")), "el resultado no mueve stock")
	assert.False(t, approved.Analysis.InProgress())

	view, err := f.svc.GetLot(f.admin, "L-001")
	require.NoError(t, err)
	assert.Equal(t, unit.Kilogramo, view.DisplayUnit)
	assert.Equal(t, "Paracetamol", view.Product.Name)

	movs, err := f.svc.ListMovements(f.admin, "L-001")
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, []entity.Motive{entity.MotiveCompra, entity.MotiveMuestreo, entity.MotiveAnalisis},
		[]entity.Motive{movs[0].Motive, movs[1].Motive, movs[2].Motive})
}

func TestRegisterSampling_SinAnalisisNoCambiaDictamen(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-002")

	res, err := f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode: "L-002",
		Line:    lot.PackageLine{PackageNumber: 1, Quantity: d("100"), Unit: unit.Gramo},
		Date:    f.today(0),
	})
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.VerdictRecibido, res.Lot.Verdict)
	assert.Nil(t, res.Analysis)
	assert.True(t, res.Lot.Quantity.Equal(d("9.9")))
}

func TestRegisterSampling_Rechazos(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-003")

	cases := []struct {
		name  string
		in    lot.SamplingInput
		field string
		code  string
	}{
		{"lote inexistente", lot.SamplingInput{LotCode: "X", Date: f.today(0)}, "codigoLote", validation.CodeNotFound},
		{"bulto inexistente", lot.SamplingInput{
			LotCode: "L-003", Date: f.today(0),
			Line: lot.PackageLine{PackageNumber: 7, Quantity: d("1"), Unit: unit.Gramo},
		}, "bulto", validation.CodeNotFound},
		{"excede el saldo", lot.SamplingInput{
			LotCode: "L-003", Date: f.today(0),
			Line: lot.PackageLine{PackageNumber: 1, Quantity: d("6"), Unit: unit.Kilogramo},
		}, "cantidad", validation.CodeInsufficient},
		{"unidad incompatible", lot.SamplingInput{
			LotCode: "L-003", Date: f.today(0),
			Line: lot.PackageLine{PackageNumber: 1, Quantity: d("1"), Unit: unit.Litro},
		}, "unidad", validation.CodeIncompatible},
		{"fecha anterior al ingreso", lot.SamplingInput{
			LotCode: "L-003", Date: f.today(-1),
			Line: lot.PackageLine{PackageNumber: 1, Quantity: d("1"), Unit: unit.Gramo},
		}, "fechaMovimiento", validation.CodeDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.RegisterSampling(f.admin, tc.in)
			require.NoError(t, err)
			require.False(t, res.OK())
			assert.Equal(t, tc.field, res.Errors[0].Field)
			assert.Equal(t, tc.code, res.Errors[0].Code)
		})
	}
}

func TestRegisterSampling_AnalisisEnCursoYNumeroRepetido(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-004")
	f.sample(t, "L-004", "A-4")

	in := lot.SamplingInput{
		LotCode:        "L-004",
		Line:           lot.PackageLine{PackageNumber: 1, Quantity: d("10"), Unit: unit.Gramo},
		Date:           f.today(0),
		AnalysisNumber: "A-5",
	}
	res, err := f.svc.RegisterSampling(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, "numeroAnalisis", res.Errors[0].Field)
	assert.Equal(t, validation.CodeState, res.Errors[0].Code)

	in.AnalysisNumber = "A-4"
	res, err = f.svc.RegisterSampling(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, validation.CodeDuplicate, res.Errors[0].Code)
}

func TestRegisterSampling_DosAnalisisEnCursoEsIntegridad(t *testing.T) {
	f := newFixture(t)
	created := f.intake(t, "L-005")

	err := f.store.Run(context.Background(), func(s lot.Stores) error {
		for _, n := range []string{"A-X", "A-Y"} {
			a := &entity.Analysis{ID: n, LotID: created.Lot.ID, Number: n, RequestedDate: t0, Active: true, CreatedAt: t0}
			if err := s.Analyses.Save(context.Background(), a); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	_, err = f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode:        "L-005",
		Line:           lot.PackageLine{PackageNumber: 1, Quantity: d("1"), Unit: unit.Gramo},
		Date:           f.today(0),
		AnalysisNumber: "A-Z",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	var multi *domain.MultipleInProgressAnalysisError
	require.True(t, errors.As(err, &multi))
	assert.ElementsMatch(t, []string{"A-X", "A-Y"}, multi.Numbers)

	view, err := f.svc.GetLot(f.admin, "L-005")
	require.NoError(t, err)
	assert.True(t, view.Lot.Quantity.Equal(d("10")), "la transacción abortada no debe mover stock")
}

// ──────────────────────────────────────────────────────────────────────────────
// Resultado de análisis
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterAnalysisResult_OrdenDeValidacion(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-010")
	f.sample(t, "L-010", "A-10")

	full := f.approvedInput("L-010", "A-10", "98")
	cases := []struct {
		name  string
		edit  func(in *lot.AnalysisResultInput)
		field string
	}{
		{"todo vacío", func(in *lot.AnalysisResultInput) { *in = lot.AnalysisResultInput{} }, "numeroAnalisis"},
		{"sin dictamen", func(in *lot.AnalysisResultInput) { in.Verdict = ""; in.RealizedDate = nil }, "dictamenFinal"},
		{"dictamen inválido", func(in *lot.AnalysisResultInput) { in.Verdict = entity.VerdictLiberado }, "dictamenFinal"},
		{"sin fecha de realización", func(in *lot.AnalysisResultInput) { in.RealizedDate = nil; in.Titer = nil }, "fechaRealizado"},
		{"sin fechas de vigencia", func(in *lot.AnalysisResultInput) { in.ExpiryDate = nil; in.Titer = nil }, "fechaReanalisis"},
		{"reanálisis posterior al vencimiento", func(in *lot.AnalysisResultInput) { in.ReanalysisDate = f.today(40); in.Titer = nil }, "fechaReanalisis"},
		{"sin título", func(in *lot.AnalysisResultInput) { in.Titer = nil; in.LotCode = "" }, "titulo"},
		{"título fuera de rango", func(in *lot.AnalysisResultInput) { in.Titer = ptr(d("101")) }, "titulo"},
		{"lote inexistente", func(in *lot.AnalysisResultInput) { in.LotCode = "X" }, "codigoLote"},
		{"otro análisis", func(in *lot.AnalysisResultInput) { in.AnalysisNumber = "A-99" }, "numeroAnalisis"},
		{"fecha anterior al ingreso", func(in *lot.AnalysisResultInput) { in.Date = f.today(-1); in.RealizedDate = f.today(-1) }, "fechaMovimiento"},
		{"fecha futura", func(in *lot.AnalysisResultInput) { in.Date = f.today(2); in.RealizedDate = f.today(2) }, "fechaMovimiento"},
		{"realizado en el futuro", func(in *lot.AnalysisResultInput) { in.RealizedDate = f.today(2) }, "fechaRealizado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := full
			tc.edit(&in)
			res, err := f.svc.RegisterAnalysisResult(f.admin, in)
			require.NoError(t, err)
			require.False(t, res.OK())
			assert.Equal(t, tc.field, res.Errors[0].Field, "primer chequeo fallido: %v", res.Errors)
		})
	}
}

func TestRegisterAnalysisResult_Rechazado(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-011")
	f.sample(t, "L-011", "A-11")

	res, err := f.svc.RegisterAnalysisResult(f.admin, lot.AnalysisResultInput{
		LotCode:        "L-011",
		AnalysisNumber: "A-11",
		Verdict:        entity.VerdictRechazado,
		Date:           f.today(0),
		RealizedDate:   f.today(0),
	})
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.VerdictRechazado, res.Lot.Verdict)
	assert.Nil(t, res.Lot.ExpiryDate, "un rechazo no fija fechas")
}

func TestRegisterAnalysisResult_TituloNoMejora(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-012")
	f.sample(t, "L-012", "A-12")
	f.approve(t, "L-012", "A-12", "98")
	f.sample(t, "L-012", "A-13")

	res, err := f.svc.RegisterAnalysisResult(f.admin, f.approvedInput("L-012", "A-13", "99"))
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, "titulo", res.Errors[0].Field)
	assert.Equal(t, validation.CodeOutOfRange, res.Errors[0].Code)

	ok := f.approve(t, "L-012", "A-13", "97.5")
	assert.Equal(t, entity.VerdictAprobado, ok.Lot.Verdict)
}

func TestRegisterAnalysisResult_PrimerAnalisisRespetaReanalisisProveedor(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-013")
	in.SupplierExpiryDate = f.today(60)
	in.SupplierReanalysisDate = f.today(20)
	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	f.tick()
	f.sample(t, "L-013", "A-13")

	result := f.approvedInput("L-013", "A-13", "98")
	result.ExpiryDate = nil
	result.ReanalysisDate = f.today(25)
	rejected, err := f.svc.RegisterAnalysisResult(f.admin, result)
	require.NoError(t, err)
	require.False(t, rejected.OK())
	assert.Equal(t, "fechaReanalisis", rejected.Errors[0].Field)

	result.ExpiryDate = f.today(90)
	result.ReanalysisDate = f.today(10)
	rejected, err = f.svc.RegisterAnalysisResult(f.admin, result)
	require.NoError(t, err)
	require.False(t, rejected.OK())
	assert.Equal(t, "fechaVencimiento", rejected.Errors[0].Field)
}

func TestRegisterAnalysisResult_VencimientoNoSuperaAlProveedor(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-014")
	in.SupplierExpiryDate = f.today(60)
	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	f.tick()
	f.sample(t, "L-014", "A-14")
	f.approve(t, "L-014", "A-14", "98")
	f.sample(t, "L-014", "A-15")

	result := f.approvedInput("L-014", "A-15", "97")
	result.ExpiryDate = f.today(90)
	rejected, err := f.svc.RegisterAnalysisResult(f.admin, result)
	require.NoError(t, err)
	require.False(t, rejected.OK(), "el vencimiento propuesto supera el del proveedor")
	assert.Equal(t, "fechaVencimiento", rejected.Errors[0].Field)

	result.ExpiryDate = f.today(60)
	ok, err := f.svc.RegisterAnalysisResult(f.admin, result)
	require.NoError(t, err)
	assert.True(t, ok.OK(), "el mismo día que el vencimiento del proveedor es válido: %v", ok.Errors)
}

// ──────────────────────────────────────────────────────────────────────────────
// Liberación, salidas y devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestVentaYDevolucion(t *testing.T) {
	f := newFixture(t)
	f.released(t, "L-020")

	sold, err := f.svc.RegisterSale(f.admin, f.sale("L-020", 1, "2"))
	require.NoError(t, err)
	require.True(t, sold.OK(), "%v", sold.Errors)
	assert.True(t, sold.Lot.Quantity.Equal(d("7.5")))
	assert.Equal(t, entity.VerdictLiberado, sold.Lot.Verdict)
	f.tick()

	returned, err := f.svc.RegisterSaleReturn(f.admin, lot.SaleReturnInput{
		LotCode: "L-020",
		SaleRef: sold.Movement.Code,
		Date:    f.today(0),
		Lines:   []lot.PackageLine{{PackageNumber: 1, Quantity: d("500"), Unit: unit.Gramo}},
	})
	require.NoError(t, err)
	require.True(t, returned.OK(), "%v", returned.Errors)
	assert.Equal(t, entity.VerdictDevolucionClientes, returned.Lot.Verdict)
	assert.True(t, returned.Lot.Quantity.Equal(d("8")))
	assert.Equal(t, sold.Movement.ID, returned.Movement.OriginMovementID)
	assert.Equal(t, entity.PackageStateDevuelto, returned.Packages[0].State)
	f.tick()

	tooMuch, err := f.svc.RegisterSaleReturn(f.admin, lot.SaleReturnInput{
		LotCode: "L-020",
		SaleRef: sold.Movement.Code,
		Date:    f.today(0),
		Lines:   []lot.PackageLine{{PackageNumber: 1, Quantity: d("1.6"), Unit: unit.Kilogramo}},
	})
	require.NoError(t, err)
	require.False(t, tooMuch.OK(), "no se puede devolver más de lo vendido")
	assert.Equal(t, validation.CodeInsufficient, tooMuch.Errors[0].Code)
}

func TestRegisterSale_ExigeLoteLiberado(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-021")
	f.sample(t, "L-021", "A-21")
	f.approve(t, "L-021", "A-21", "98")

	res, err := f.svc.RegisterSale(f.admin, f.sale("L-021", 1, "1"))
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, "dictamen", res.Errors[0].Field)

	consumed, err := f.svc.RegisterProductionConsumption(f.admin, f.sale("L-021", 1, "1"))
	require.NoError(t, err)
	assert.True(t, consumed.OK(), "un lote aprobado puede consumirse en producción: %v", consumed.Errors)
}

func TestRegisterSale_DistribucionConservaTotal(t *testing.T) {
	f := newFixture(t)
	f.released(t, "L-022")

	in := f.sale("L-022", 1, "3")
	in.Lines = []lot.PackageLine{
		{PackageNumber: 1, Quantity: d("2"), Unit: unit.Kilogramo},
		{PackageNumber: 2, Quantity: d("500"), Unit: unit.Gramo},
	}
	res, err := f.svc.RegisterSale(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, "cantidadesBultos", res.Errors[0].Field)
	assert.Equal(t, validation.CodeConservation, res.Errors[0].Code)

	in.Lines[1].Quantity = d("1000")
	res, err = f.svc.RegisterSale(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.True(t, res.Lot.Quantity.Equal(d("6.5")))
	assert.True(t, res.Movement.Quantity.Equal(d("3")))
}

func TestRegisterSale_VaciaBulto(t *testing.T) {
	f := newFixture(t)
	f.released(t, "L-023")

	res, err := f.svc.RegisterSale(f.admin, f.sale("L-023", 1, "5"))
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.PackageStateVendido, res.Packages[0].State)
}

func TestReleaseLot_Vencido(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-024")
	f.sample(t, "L-024", "A-24")
	in := f.approvedInput("L-024", "A-24", "98")
	in.ExpiryDate = f.today(2)
	res, err := f.svc.RegisterAnalysisResult(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)

	f.clock.Advance(72 * time.Hour)
	rel, err := f.svc.ReleaseLot(f.admin, lot.VerdictChangeInput{LotCode: "L-024", Date: f.today(0)})
	require.NoError(t, err)
	require.False(t, rel.OK())
	assert.Equal(t, "fechaMovimiento", rel.Errors[0].Field)
}

func TestRegisterStockAdjustment_ExigeObservaciones(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-025")

	in := lot.StockAdjustmentInput{
		LotCode: "L-025",
		Line:    lot.PackageLine{PackageNumber: 1, Quantity: d("5"), Unit: unit.Kilogramo},
		Date:    f.today(0),
	}
	res, err := f.svc.RegisterStockAdjustment(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, "observaciones", res.Errors[0].Field)

	in.Notes = ptr("bolsa rota")
	res, err = f.svc.RegisterStockAdjustment(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.PackageStateDescartado, res.Packages[0].State)
	assert.Equal(t, "_AJUSTE_STOCK_\nbolsa rota", res.Movement.Notes)
}

func TestRegisterSupplierReturn(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-026")
	f.sample(t, "L-026", "A-26")

	res, err := f.svc.RegisterSupplierReturn(f.admin, lot.VerdictChangeInput{LotCode: "L-026", Date: f.today(0)})
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.True(t, res.Lot.Quantity.IsZero())
	assert.True(t, res.Movement.Quantity.Equal(d("9.5")))
	for _, p := range res.Packages {
		assert.Equal(t, entity.PackageStateDevuelto, p.State)
	}
}

func TestRegisterMarketRecall(t *testing.T) {
	f := newFixture(t)
	f.released(t, "L-027")

	res, err := f.svc.RegisterMarketRecall(f.admin, lot.VerdictChangeInput{LotCode: "L-027", Date: f.today(0)})
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, entity.VerdictRetiroMercado, res.Lot.Verdict)
	assert.Equal(t, entity.VerdictLiberado, res.Movement.InitialVerdict)
	f.tick()

	sample, err := f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode: "L-027",
		Line:    lot.PackageLine{PackageNumber: 1, Quantity: d("1"), Unit: unit.Gramo},
		Date:    f.today(0),
	})
	require.NoError(t, err)
	assert.False(t, sample.OK(), "un lote retirado no se muestrea")
}

func TestExpireDue(t *testing.T) {
	f := newFixture(t)
	in := f.purchaseInput("L-030")
	in.SupplierExpiryDate = f.today(10)
	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	f.tick()
	f.sample(t, "L-030", "A-30")
	f.intake(t, "L-031") // RECIBIDO: no vence

	f.clock.Advance(15 * 24 * time.Hour)
	expired, err := f.svc.ExpireDue(f.admin, f.clock.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "L-030", expired[0].Lot.Code)
	assert.Equal(t, entity.VerdictVencido, expired[0].Lot.Verdict)
	assert.Equal(t, entity.MotiveVencimiento, expired[0].Movement.Motive)

	again, err := f.svc.ExpireDue(f.admin, f.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestExpireDue_FechaDeCorteFutura(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-032")
	f.sample(t, "L-032", "A-32")
	f.approve(t, "L-032", "A-32", "98") // vence a los 30 días

	expired, err := f.svc.ExpireDue(f.admin, *f.today(60))
	require.Error(t, err, "una fecha de corte futura no vence nada en silencio")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, expired)

	view, err := f.svc.GetLot(f.admin, "L-032")
	require.NoError(t, err)
	assert.Equal(t, entity.VerdictAprobado, view.Lot.Verdict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes trazables
// ──────────────────────────────────────────────────────────────────────────────

func TestLoteTrazable(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.RegisterPurchaseIntake(f.admin, lot.IntakeInput{
		LotCode:      "L-040",
		ProductID:    "prod-2",
		SupplierID:   "prov-1",
		IntakeDate:   f.today(0),
		PackageCount: 2,
		Quantity:     d("6"),
		Unit:         unit.Unidad,
		PackageQuantities: []unit.Quantity{
			unit.Of(d("3"), unit.Unidad),
			unit.Of(d("3"), unit.Unidad),
		},
		Traceable: true,
	})
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Errors)
	f.tick()

	view, err := f.svc.GetLot(f.admin, "L-040")
	require.NoError(t, err)
	assert.Equal(t, 6, view.ActiveTraces)

	fraction, err := f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode: "L-040",
		Line:    lot.PackageLine{PackageNumber: 1, Quantity: d("0.5"), Unit: unit.Unidad},
		Date:    f.today(0),
	})
	require.NoError(t, err)
	require.False(t, fraction.OK())
	assert.Equal(t, validation.CodeInvalid, fraction.Errors[0].Code)

	one, err := f.svc.RegisterSampling(f.admin, lot.SamplingInput{
		LotCode: "L-040",
		Line:    lot.PackageLine{PackageNumber: 1, Quantity: d("1"), Unit: unit.Unidad},
		Date:    f.today(0),
	})
	require.NoError(t, err)
	require.True(t, one.OK(), "%v", one.Errors)

	view, err = f.svc.GetLot(f.admin, "L-040")
	require.NoError(t, err)
	assert.Equal(t, 5, view.ActiveTraces)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listados
// ──────────────────────────────────────────────────────────────────────────────

func TestListLots(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-A")
	f.intake(t, "L-B")
	f.intake(t, "L-C")

	page, err := f.svc.ListLots(f.admin, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "L-B", page[0].Code)
	assert.Equal(t, "L-C", page[1].Code)

	_, err = f.svc.ListMovements(f.admin, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
