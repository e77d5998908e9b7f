// Package movement construye los asientos del libro de lotes.
//
// Cada operación de negocio se describe con una variante (Purchase, Sampling, Sale,
// Reversal, ...) y Build arma el movimiento completo: código, fechas, notas, vínculos
// y detalles por bulto. Ninguna variante persiste nada.
package movement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// codeLayout equivale a yy.MM.dd_HH.mm.ss.
const codeLayout = "06.01.02_15.04.05"

// Code arma el código de un movimiento a nivel lote.
func Code(lotCode string, at time.Time) string {
	return fmt.Sprintf("%s-%s", lotCode, at.Format(codeLayout))
}

// PackageCode arma el código de un movimiento sobre un bulto concreto.
func PackageCode(lotCode string, packageNumber int, at time.Time) string {
	return fmt.Sprintf("%s-P_%d-%s", lotCode, packageNumber, at.Format(codeLayout))
}

// Notes antepone la etiqueta del caso de uso a las observaciones del operador.
func Notes(tag string, notes *string) string {
	provided := ""
	if notes != nil {
		provided = *notes
	}
	return "_" + tag + "_\n" + provided
}

// Common son los datos que comparten todas las variantes.
type Common struct {
	CreatedAt time.Time // instante de la operación (reloj inyectado)
	Date      time.Time // fecha efectiva declarada por el operador
	Lot       *entity.Lot
	Notes     *string
	AuthorID  string
}

// Line es la cantidad pedida sobre un bulto, ya validada.
type Line struct {
	Package  *entity.Package
	Quantity decimal.Decimal
	Unit     unit.Unit
}

// Variant es la unión cerrada de motivos. Sólo las variantes de este paquete la implementan.
type Variant interface {
	motive() entity.Motive
	tag() string
}

// Purchase: ingreso por compra; un detalle por bulto con su cantidad inicial completa.
type Purchase struct{ Packages []*entity.Package }

// OwnProduction: ingreso por producción propia.
type OwnProduction struct{ Packages []*entity.Package }

// Sampling: toma de muestra sobre un bulto. Con AnalysisNumber el código es por bulto.
type Sampling struct {
	Line           Line
	AnalysisNumber string
	InitialVerdict entity.Verdict
	FinalVerdict   entity.Verdict
}

// AnalysisResult: registro del dictamen de un análisis.
type AnalysisResult struct {
	AnalysisNumber string
	InitialVerdict entity.Verdict
	FinalVerdict   entity.Verdict
}

// Release: liberación de un lote aprobado.
type Release struct{ InitialVerdict entity.Verdict }

// Sale: venta distribuida en uno o más bultos.
type Sale struct{ Lines []Line }

// ProductionConsumption: consumo en producción distribuido en uno o más bultos.
type ProductionConsumption struct{ Lines []Line }

// SaleReturn: reingreso de mercadería vendida; Origin es la venta.
type SaleReturn struct {
	Lines          []Line
	Origin         *entity.Movement
	InitialVerdict entity.Verdict
}

// SupplierReturn: devolución al proveedor del saldo de los bultos.
type SupplierReturn struct{ Lines []Line }

// MarketRecall: retiro de mercado.
type MarketRecall struct{ InitialVerdict entity.Verdict }

// StockAdjustment: ajuste de stock sobre un bulto.
type StockAdjustment struct{ Line Line }

// Expiry: vencimiento por fecha.
type Expiry struct{ InitialVerdict entity.Verdict }

// Reversal: anula Origin. No lleva detalles; el saldo se recalcula desde el historial.
type Reversal struct {
	Origin         *entity.Movement
	InitialVerdict entity.Verdict
	FinalVerdict   entity.Verdict
}

func (Purchase) motive() entity.Motive              { return entity.MotiveCompra }
func (OwnProduction) motive() entity.Motive         { return entity.MotiveProduccionPropia }
func (Sampling) motive() entity.Motive              { return entity.MotiveMuestreo }
func (AnalysisResult) motive() entity.Motive        { return entity.MotiveAnalisis }
func (Release) motive() entity.Motive               { return entity.MotiveLiberacion }
func (Sale) motive() entity.Motive                  { return entity.MotiveVenta }
func (ProductionConsumption) motive() entity.Motive { return entity.MotiveConsumoProduccion }
func (SaleReturn) motive() entity.Motive            { return entity.MotiveDevolucionVenta }
func (SupplierReturn) motive() entity.Motive        { return entity.MotiveDevolucionCompra }
func (MarketRecall) motive() entity.Motive          { return entity.MotiveRetiroMercado }
func (StockAdjustment) motive() entity.Motive       { return entity.MotiveAjuste }
func (Expiry) motive() entity.Motive                { return entity.MotiveVencimiento }
func (Reversal) motive() entity.Motive              { return entity.MotiveReverso }

func (Purchase) tag() string              { return "INGRESO_COMPRA" }
func (OwnProduction) tag() string         { return "INGRESO_PRODUCCION" }
func (Sampling) tag() string              { return "MUESTREO" }
func (AnalysisResult) tag() string        { return "RESULTADO_ANALISIS" }
func (Release) tag() string               { return "LIBERACION" }
func (Sale) tag() string                  { return "VENTA" }
func (ProductionConsumption) tag() string { return "CONSUMO_PRODUCCION" }
func (SaleReturn) tag() string            { return "DEVOLUCION_VENTA" }
func (SupplierReturn) tag() string        { return "DEVOLUCION_COMPRA" }
func (MarketRecall) tag() string          { return "RETIRO_MERCADO" }
func (StockAdjustment) tag() string       { return "AJUSTE_STOCK" }
func (Expiry) tag() string                { return "VENCIMIENTO" }
func (Reversal) tag() string              { return "REVERSO_MOVIMIENTO" }

// MotiveOf devuelve el motivo de una variante.
func MotiveOf(v Variant) entity.Motive { return v.motive() }

// TagOf devuelve la etiqueta con que la variante marca las notas.
func TagOf(v Variant) string { return v.tag() }

// Build arma el movimiento para la variante. Las cantidades de las líneas se expresan
// en la unidad de cada bulto; una unidad incompatible devuelve IncompatibleUnitsError.
func Build(c Common, v Variant) (*entity.Movement, error) {
	if c.Lot == nil {
		return nil, fmt.Errorf("%w: movimiento sin lote", domain.ErrInvalidInput)
	}
	motive := v.motive()
	m := &entity.Movement{
		ID:        uuid.New().String(),
		Code:      Code(c.Lot.Code, c.CreatedAt),
		Kind:      motive.Kind(),
		Motive:    motive,
		CreatedAt: c.CreatedAt,
		Date:      c.Date,
		Notes:     Notes(v.tag(), c.Notes),
		LotID:     c.Lot.ID,
		LotCode:   c.Lot.Code,
		AuthorID:  c.AuthorID,
		Active:    true,
	}

	var err error
	switch x := v.(type) {
	case Purchase:
		intakeDetails(m, c.Lot, x.Packages)
	case OwnProduction:
		intakeDetails(m, c.Lot, x.Packages)
	case Sampling:
		if x.AnalysisNumber != "" {
			m.Code = PackageCode(c.Lot.Code, x.Line.Package.Number, c.CreatedAt)
		}
		m.AnalysisNumber = x.AnalysisNumber
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, x.FinalVerdict
		err = lineDetails(m, c.Lot, []Line{x.Line})
	case AnalysisResult:
		m.AnalysisNumber = x.AnalysisNumber
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, x.FinalVerdict
	case Release:
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, entity.VerdictLiberado
	case Sale:
		err = lineDetails(m, c.Lot, x.Lines)
	case ProductionConsumption:
		err = lineDetails(m, c.Lot, x.Lines)
	case SaleReturn:
		if x.Origin != nil {
			m.OriginMovementID = x.Origin.ID
		}
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, entity.VerdictDevolucionClientes
		err = lineDetails(m, c.Lot, x.Lines)
	case SupplierReturn:
		err = lineDetails(m, c.Lot, x.Lines)
	case MarketRecall:
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, entity.VerdictRetiroMercado
	case StockAdjustment:
		m.Code = PackageCode(c.Lot.Code, x.Line.Package.Number, c.CreatedAt)
		err = lineDetails(m, c.Lot, []Line{x.Line})
	case Expiry:
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, entity.VerdictVencido
	case Reversal:
		if x.Origin == nil {
			return nil, fmt.Errorf("%w: reverso sin movimiento de origen", domain.ErrInvalidInput)
		}
		m.OriginMovementID = x.Origin.ID
		m.AnalysisNumber = x.Origin.AnalysisNumber
		m.InitialVerdict, m.FinalVerdict = x.InitialVerdict, x.FinalVerdict
	default:
		return nil, fmt.Errorf("%w: motivo no soportado %T", domain.ErrInvalidInput, v)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// intakeDetails: un detalle por bulto con su cantidad inicial; el total es el del lote.
func intakeDetails(m *entity.Movement, lot *entity.Lot, packages []*entity.Package) {
	m.FinalVerdict = entity.VerdictRecibido
	m.Quantity, m.Unit = lot.InitialQuantity, lot.Unit
	m.Details = make([]entity.MovementDetail, 0, len(packages))
	for _, p := range packages {
		m.Details = append(m.Details, entity.MovementDetail{
			ID:            uuid.New().String(),
			MovementID:    m.ID,
			PackageID:     p.ID,
			PackageNumber: p.Number,
			Quantity:      p.InitialQuantity,
			Unit:          p.Unit,
		})
	}
}

// lineDetails convierte cada línea a la unidad de su bulto y acumula el total en la unidad del lote.
func lineDetails(m *entity.Movement, lot *entity.Lot, lines []Line) error {
	total := decimal.Zero
	m.Details = make([]entity.MovementDetail, 0, len(lines))
	for _, l := range lines {
		q, err := unit.Convert(l.Unit, l.Quantity, l.Package.Unit)
		if err != nil {
			return err
		}
		inLot, err := unit.Convert(l.Unit, l.Quantity, lot.Unit)
		if err != nil {
			return err
		}
		total = total.Add(inLot)
		m.Details = append(m.Details, entity.MovementDetail{
			ID:            uuid.New().String(),
			MovementID:    m.ID,
			PackageID:     l.Package.ID,
			PackageNumber: l.Package.Number,
			Quantity:      q,
			Unit:          l.Package.Unit,
		})
	}
	m.Quantity, m.Unit = total, lot.Unit
	return nil
}
