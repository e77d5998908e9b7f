package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// MovementKind clasifica el efecto del movimiento sobre el stock.
type MovementKind string

const (
	MovementKindAlta         MovementKind = "ALTA"         // entrada
	MovementKindBaja         MovementKind = "BAJA"         // salida
	MovementKindModificacion MovementKind = "MODIFICACION" // correctivo / cambio de dictamen
)

// Motive es la razón de negocio del movimiento.
type Motive string

const (
	MotiveCompra            Motive = "COMPRA"
	MotiveMuestreo          Motive = "MUESTREO"
	MotiveAnalisis          Motive = "ANALISIS"
	MotiveConsumoProduccion Motive = "CONSUMO_PRODUCCION"
	MotiveProduccionPropia  Motive = "PRODUCCION_PROPIA"
	MotiveVenta             Motive = "VENTA"
	MotiveDevolucionCompra  Motive = "DEVOLUCION_COMPRA"
	MotiveDevolucionVenta   Motive = "DEVOLUCION_VENTA"
	MotiveRetiroMercado     Motive = "RETIRO_MERCADO"
	MotiveAjuste            Motive = "AJUSTE"
	MotiveReverso           Motive = "REVERSO"
	MotiveVencimiento       Motive = "VENCIMIENTO"
	MotiveLiberacion        Motive = "LIBERACION"
)

var motiveKinds = map[Motive]MovementKind{
	MotiveCompra:            MovementKindAlta,
	MotiveProduccionPropia:  MovementKindAlta,
	MotiveDevolucionVenta:   MovementKindAlta,
	MotiveMuestreo:          MovementKindBaja,
	MotiveConsumoProduccion: MovementKindBaja,
	MotiveVenta:             MovementKindBaja,
	MotiveDevolucionCompra:  MovementKindBaja,
	MotiveAjuste:            MovementKindBaja,
	MotiveAnalisis:          MovementKindModificacion,
	MotiveRetiroMercado:     MovementKindModificacion,
	MotiveReverso:           MovementKindModificacion,
	MotiveVencimiento:       MovementKindModificacion,
	MotiveLiberacion:        MovementKindModificacion,
}

// Kind devuelve el tipo de movimiento que corresponde al motivo.
func (m Motive) Kind() MovementKind { return motiveKinds[m] }

// Valid indica si el motivo es conocido.
func (m Motive) Valid() bool {
	_, ok := motiveKinds[m]
	return ok
}

// Movement es un asiento inmutable del libro. Sólo Active cambia: lo apaga la reversa
// que lo referencia.
type Movement struct {
	ID               string
	Code             string
	Kind             MovementKind
	Motive           Motive
	CreatedAt        time.Time
	Date             time.Time // fecha efectiva declarada
	Quantity         decimal.Decimal // sólo en movimientos sin detalle
	Unit             unit.Unit
	InitialVerdict   Verdict // "" si el movimiento no toca el dictamen
	FinalVerdict     Verdict
	Notes            string
	LotID            string
	LotCode          string
	OriginMovementID string
	AnalysisNumber   string
	AuthorID         string
	Active           bool
	Details          []MovementDetail
}

// ChangesVerdict indica si el movimiento registró un cambio de dictamen.
func (m *Movement) ChangesVerdict() bool {
	return m.InitialVerdict != "" && m.FinalVerdict != "" && m.InitialVerdict != m.FinalVerdict
}

// MovementDetail es la línea de un movimiento sobre un bulto concreto.
type MovementDetail struct {
	ID            string
	MovementID    string
	PackageID     string
	PackageNumber int
	Quantity      decimal.Decimal
	Unit          unit.Unit
}
