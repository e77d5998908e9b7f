// Package pdf genera la ficha de trazabilidad de un lote.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + Producto  │  Código de lote + Dictamen   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Origen / Proveedor / Fechas / Cantidades             │
//	│  BULTOS: N° | Inicial | Saldo | Estado                       │
//	│  ANÁLISIS: N° | Solicitado | Realizado | Dictamen | Título   │
//	│  MOVIMIENTOS: Código | Motivo | Fecha | Dictamen | Estado    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el código del lote + fecha de emisión        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

const dateLayout = "2006-01-02"

var _ lot.SheetGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa lot.SheetGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateLotSheet genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateLotSheet(_ context.Context, sheet *lot.Sheet) ([]byte, error) {
	if sheet == nil || sheet.View == nil || sheet.View.Lot == nil {
		return nil, fmt.Errorf("pdf: ficha sin lote")
	}
	l := sheet.View.Lot

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ficha de lote "+l.Code, true).
		WithAuthor(sheet.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(dataRows(sheet.View)...)

	m.AddRows(sectionTitle("BULTOS"))
	m.AddRows(tableHeader([]string{"N°", "Cantidad inicial", "Saldo", "Estado"}, []int{2, 4, 4, 2}))
	m.AddRows(packageRows(sheet.View.Packages)...)

	if len(sheet.View.Analyses) > 0 {
		m.AddRows(sectionTitle("ANÁLISIS"))
		m.AddRows(tableHeader([]string{"N°", "Solicitado", "Realizado", "Dictamen", "Título"}, []int{3, 2, 2, 3, 2}))
		m.AddRows(analysisRows(sheet.View.Analyses)...)
	}

	m.AddRows(sectionTitle("MOVIMIENTOS"))
	m.AddRows(tableHeader([]string{"Código", "Motivo", "Fecha", "Dictamen", "Estado"}, []int{4, 2, 2, 3, 1}))
	m.AddRows(movementRows(sheet.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(sheet))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa y producto (izq), código de lote y dictamen (der).
func headerRow(sheet *lot.Sheet) core.Row {
	l := sheet.View.Lot
	product := "Producto " + l.ProductID
	if p := sheet.View.Product; p != nil {
		product = p.Code + " · " + p.Name
	}
	verdictColor := colorPrimary
	if !l.Active || l.Verdict == entity.VerdictRechazado || l.Verdict == entity.VerdictVencido ||
		l.Verdict == entity.VerdictRetiroMercado {
		verdictColor = colorAlert
	}
	status := string(l.Verdict)
	if !l.Active {
		status += " (ANULADO)"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(sheet.CompanyName, "Laboratorio"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary,
			}),
			text.New(product, props.Text{Size: 9, Top: 7, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FICHA DE LOTE", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary,
			}),
			text.New(l.Code, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 5}),
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 12, Color: verdictColor,
			}),
		),
	)
}

// dataRows: origen, proveedor, fechas y cantidades del lote.
func dataRows(v *lot.LotView) []core.Row {
	l := v.Lot
	pair := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Size: 9, Top: 4}),
		)
	}
	return []core.Row{
		row.New(11).Add(
			pair("Origen", string(l.OriginMotive)),
			pair("Proveedor", nonEmpty(l.SupplierID, "-")),
			pair("Lote proveedor", nonEmpty(l.SupplierLotCode, "-")),
			pair("Ingreso", formatDate(&l.IntakeDate)),
		),
		row.New(11).Add(
			pair("Vencimiento", formatDate(firstDate(l.ExpiryDate, l.SupplierExpiryDate))),
			pair("Reanálisis", formatDate(firstDate(l.ReanalysisDate, l.SupplierReanalysisDate))),
			pair("Cantidad inicial", unit.Of(l.InitialQuantity, l.Unit).String()),
			pair("Saldo", unit.Of(v.DisplayQuantity, v.DisplayUnit).String()),
		),
		row.New(11).Add(
			pair("Bultos", fmt.Sprintf("%d", l.PackageCount)),
			pair("Trazable", yesNo(l.Traceable)),
			pair("Trazas vigentes", fmt.Sprintf("%d", v.ActiveTraces)),
			pair("País de origen", nonEmpty(l.OriginCountry, "-")),
		),
	}
}

func sectionTitle(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 3}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, label := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1, Color: colorGray,
		})))
	}
	return row.New(6).Add(cols...)
}

func cell(size int, value string) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Top: 1, Left: 1}))
}

func packageRows(packages []lot.PackageView) []core.Row {
	rows := make([]core.Row, 0, len(packages))
	for _, pv := range packages {
		p := pv.Package
		rows = append(rows, row.New(6).Add(
			cell(2, fmt.Sprintf("%d", p.Number)),
			cell(4, unit.Of(p.InitialQuantity, p.Unit).String()),
			cell(4, unit.Of(pv.DisplayQuantity, pv.DisplayUnit).String()),
			cell(2, string(p.State)),
		))
	}
	return rows
}

func analysisRows(analyses []*entity.Analysis) []core.Row {
	rows := make([]core.Row, 0, len(analyses))
	for _, a := range analyses {
		verdict := string(a.Verdict)
		switch {
		case !a.Active:
			verdict = "ANULADO"
		case a.InProgress():
			verdict = "EN CURSO"
		}
		titer := "-"
		if a.Titer != nil {
			titer = a.Titer.StringFixed(2) + " %"
		}
		rows = append(rows, row.New(6).Add(
			cell(3, a.Number),
			cell(2, formatDate(&a.RequestedDate)),
			cell(2, formatDate(a.RealizedDate)),
			cell(3, verdict),
			cell(2, titer),
		))
	}
	return rows
}

func movementRows(movements []*entity.Movement) []core.Row {
	rows := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		verdict := "-"
		if mv.ChangesVerdict() {
			verdict = string(mv.InitialVerdict) + " → " + string(mv.FinalVerdict)
		}
		state := "vigente"
		if !mv.Active {
			state = "revertido"
		}
		rows = append(rows, row.New(6).Add(
			cell(4, mv.Code),
			cell(2, string(mv.Motive)),
			cell(2, formatDate(&mv.Date)),
			cell(3, verdict),
			cell(1, state),
		))
	}
	return rows
}

// footerRow: QR con el código del lote y fecha de emisión.
func footerRow(sheet *lot.Sheet) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(sheet.View.Lot.Code, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Documento generado desde el libro de movimientos del lote.", props.Text{
				Size: 8, Top: 6, Left: 3, Color: colorGray,
			}),
			text.New("Emitido: "+sheet.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func firstDate(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
