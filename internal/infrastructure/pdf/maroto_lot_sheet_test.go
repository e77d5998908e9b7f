package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/pdf"
)

func TestGenerateLotSheet_GeneraPDF(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	titer := decimal.RequireFromString("98.5")
	l := &entity.Lot{
		ID: "lot-1", Code: "L-MP-001", ProductID: "prod-1", SupplierID: "prov-1",
		IntakeDate: at, OriginMotive: entity.MotiveCompra, PackageCount: 1,
		Verdict: entity.VerdictAprobado, InitialQuantity: decimal.NewFromInt(10),
		Quantity: decimal.RequireFromString("9.5"), Unit: unit.Kilogramo, Active: true,
	}
	pkg := &entity.Package{ID: "pkg-1", LotID: "lot-1", Number: 1,
		InitialQuantity: decimal.NewFromInt(10), Quantity: decimal.RequireFromString("9.5"),
		Unit: unit.Kilogramo, State: entity.PackageStateEnUso, Active: true}

	sheet := &lot.Sheet{
		CompanyName: "Laboratorio Test",
		GeneratedAt: at,
		View: &lot.LotView{
			Lot:             l,
			Product:         &entity.Product{ID: "prod-1", Code: "MP-001", Name: "Paracetamol"},
			DisplayQuantity: l.Quantity,
			DisplayUnit:     l.Unit,
			Packages:        []lot.PackageView{{Package: pkg, DisplayQuantity: pkg.Quantity, DisplayUnit: pkg.Unit}},
			Analyses: []*entity.Analysis{{ID: "an-1", LotID: "lot-1", Number: "A-1", RequestedDate: at,
				RealizedDate: &at, Verdict: entity.VerdictAprobado, Titer: &titer, Active: true}},
		},
		Movements: []*entity.Movement{
			{ID: "mov-1", Code: "L-MP-001-25.03.10_09.00.00", Kind: entity.MovementKindAlta, Motive: entity.MotiveCompra,
				Date: at, FinalVerdict: entity.VerdictRecibido, Active: true},
			{ID: "mov-2", Code: "L-MP-001-25.03.10_09.05.00", Kind: entity.MovementKindModificacion, Motive: entity.MotiveAnalisis,
				Date: at, InitialVerdict: entity.VerdictCuarentena, FinalVerdict: entity.VerdictAprobado, Active: true},
		},
	}

	doc, err := pdf.NewMarotoPDFGenerator().GenerateLotSheet(context.Background(), sheet)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "%PDF", string(doc[:4]), "el documento debe ser un PDF")
}

func TestGenerateLotSheet_SinLote(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateLotSheet(context.Background(), &lot.Sheet{})
	assert.Error(t, err)
}
