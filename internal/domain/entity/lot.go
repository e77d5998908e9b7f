package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// Lot representa un ingreso (compra o producción propia) de un único producto.
// Quantity es la suma de los saldos de sus bultos expresada en Unit; nunca es negativa.
// Un lote no se borra: se desactiva (Active=false) al revertir su ingreso.
type Lot struct {
	ID              string
	Code            string // código interno del lote
	ProductID       string
	SupplierID      string
	ManufacturerID  string
	OriginCountry   string
	SupplierLotCode string
	IntakeDate      time.Time

	// Fechas declaradas por el proveedor.
	SupplierExpiryDate     *time.Time
	SupplierReanalysisDate *time.Time
	// Fechas vigentes, fijadas por el último análisis aprobado.
	ExpiryDate     *time.Time
	ReanalysisDate *time.Time

	OriginMotive    Motive // COMPRA o PRODUCCION_PROPIA
	PackageCount    int
	Verdict         Verdict
	InitialQuantity decimal.Decimal
	Quantity        decimal.Decimal
	Unit            unit.Unit
	Traceable       bool
	Active          bool
	CreatedAt       time.Time
}

// EffectiveExpiry devuelve la fecha límite de uso: la más próxima entre reanálisis y
// vencimiento vigentes, o las del proveedor si el lote nunca fue aprobado.
func (l *Lot) EffectiveExpiry() *time.Time {
	reanalysis, expiry := l.ReanalysisDate, l.ExpiryDate
	if reanalysis == nil && expiry == nil {
		reanalysis, expiry = l.SupplierReanalysisDate, l.SupplierExpiryDate
	}
	switch {
	case reanalysis == nil:
		return expiry
	case expiry == nil:
		return reanalysis
	case reanalysis.Before(*expiry):
		return reanalysis
	default:
		return expiry
	}
}
