package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

// Los nombres JSON de las peticiones coinciden con los campos de los errores de validación.

// QuantityDTO cantidad con su unidad.
type QuantityDTO struct {
	Cantidad decimal.Decimal `json:"cantidad"`
	Unidad   string          `json:"unidad"`
}

// PackageLineDTO cantidad pedida sobre un bulto.
type PackageLineDTO struct {
	Bulto    int             `json:"bulto"`
	Cantidad decimal.Decimal `json:"cantidad"`
	Unidad   string          `json:"unidad"`
}

// IntakeRequest entrada para ingresos por compra o producción propia.
type IntakeRequest struct {
	CodigoLote                string        `json:"codigoLote"`
	ProductoID                string        `json:"producto" validate:"required"`
	ProveedorID               string        `json:"proveedor"`
	FabricanteID              string        `json:"fabricante"`
	PaisOrigen                string        `json:"paisOrigen"`
	LoteProveedor             string        `json:"loteProveedor"`
	FechaIngreso              *time.Time    `json:"fechaIngreso"`
	FechaVencimientoProveedor *time.Time    `json:"fechaVencimientoProveedor"`
	FechaReanalisisProveedor  *time.Time    `json:"fechaReanalisisProveedor"`
	CantidadBultos            int           `json:"cantidadBultos"`
	Cantidad                  QuantityDTO   `json:"cantidad"`
	CantidadesBultos          []QuantityDTO `json:"cantidadesBultos"`
	Trazable                  bool          `json:"trazable"`
	Observaciones             *string       `json:"observaciones"`
}

// SamplingRequest entrada para un muestreo.
type SamplingRequest struct {
	Muestra         PackageLineDTO `json:"muestra"`
	FechaMovimiento *time.Time     `json:"fechaMovimiento"`
	NumeroAnalisis  string         `json:"numeroAnalisis"`
	Observaciones   *string        `json:"observaciones"`
}

// AnalysisResultRequest entrada para registrar el resultado de un análisis.
type AnalysisResultRequest struct {
	NumeroAnalisis   string           `json:"numeroAnalisis"`
	DictamenFinal    string           `json:"dictamenFinal"`
	FechaMovimiento  *time.Time       `json:"fechaMovimiento"`
	FechaRealizado   *time.Time       `json:"fechaRealizado"`
	FechaReanalisis  *time.Time       `json:"fechaReanalisis"`
	FechaVencimiento *time.Time       `json:"fechaVencimiento"`
	Titulo           *decimal.Decimal `json:"titulo"`
	Observaciones    *string          `json:"observaciones"`
}

// VerdictChangeRequest entrada para liberación, retiro de mercado, vencimiento y devolución a proveedor.
type VerdictChangeRequest struct {
	FechaMovimiento *time.Time `json:"fechaMovimiento"`
	Observaciones   *string    `json:"observaciones"`
}

// DistributionRequest entrada para ventas y consumos de producción.
type DistributionRequest struct {
	FechaMovimiento *time.Time       `json:"fechaMovimiento"`
	Cantidad        QuantityDTO      `json:"cantidad"`
	Bultos          []PackageLineDTO `json:"bultos"`
	Observaciones   *string          `json:"observaciones"`
}

// StockAdjustmentRequest entrada para un ajuste de stock sobre un bulto.
type StockAdjustmentRequest struct {
	Ajuste          PackageLineDTO `json:"ajuste"`
	FechaMovimiento *time.Time     `json:"fechaMovimiento"`
	Observaciones   *string        `json:"observaciones"`
}

// SaleReturnRequest entrada para una devolución de cliente.
type SaleReturnRequest struct {
	MovimientoVenta string           `json:"movimientoVenta"`
	FechaMovimiento *time.Time       `json:"fechaMovimiento"`
	Bultos          []PackageLineDTO `json:"bultos"`
	Observaciones   *string          `json:"observaciones"`
}

// ExpireDueRequest entrada para vencer los lotes cuya fecha límite ya pasó.
type ExpireDueRequest struct {
	Fecha *time.Time `json:"fecha"`
}

// PackageResponse salida de un bulto.
type PackageResponse struct {
	Numero           int             `json:"numero"`
	CantidadInicial  decimal.Decimal `json:"cantidadInicial"`
	Cantidad         decimal.Decimal `json:"cantidad"`
	Unidad           string          `json:"unidad"`
	CantidadSugerida decimal.Decimal `json:"cantidadSugerida"`
	UnidadSugerida   string          `json:"unidadSugerida"`
	Estado           string          `json:"estado"`
	Activo           bool            `json:"activo"`
}

// AnalysisResponse salida de un análisis.
type AnalysisResponse struct {
	Numero           string           `json:"numero"`
	FechaSolicitud   time.Time        `json:"fechaSolicitud"`
	FechaRealizado   *time.Time       `json:"fechaRealizado,omitempty"`
	Dictamen         string           `json:"dictamen,omitempty"`
	Titulo           *decimal.Decimal `json:"titulo,omitempty"`
	FechaReanalisis  *time.Time       `json:"fechaReanalisis,omitempty"`
	FechaVencimiento *time.Time       `json:"fechaVencimiento,omitempty"`
	EnCurso          bool             `json:"enCurso"`
	Activo           bool             `json:"activo"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID                        string             `json:"id"`
	Codigo                    string             `json:"codigo"`
	ProductoID                string             `json:"producto"`
	ProductoNombre            string             `json:"productoNombre,omitempty"`
	ProveedorID               string             `json:"proveedor,omitempty"`
	LoteProveedor             string             `json:"loteProveedor,omitempty"`
	Origen                    string             `json:"origen"`
	FechaIngreso              time.Time          `json:"fechaIngreso"`
	FechaVencimientoProveedor *time.Time         `json:"fechaVencimientoProveedor,omitempty"`
	FechaReanalisisProveedor  *time.Time         `json:"fechaReanalisisProveedor,omitempty"`
	FechaVencimiento          *time.Time         `json:"fechaVencimiento,omitempty"`
	FechaReanalisis           *time.Time         `json:"fechaReanalisis,omitempty"`
	Dictamen                  string             `json:"dictamen"`
	CantidadBultos            int                `json:"cantidadBultos"`
	CantidadInicial           decimal.Decimal    `json:"cantidadInicial"`
	Cantidad                  decimal.Decimal    `json:"cantidad"`
	Unidad                    string             `json:"unidad"`
	CantidadSugerida          *decimal.Decimal   `json:"cantidadSugerida,omitempty"`
	UnidadSugerida            string             `json:"unidadSugerida,omitempty"`
	Trazable                  bool               `json:"trazable"`
	TrazasActivas             int                `json:"trazasActivas,omitempty"`
	Activo                    bool               `json:"activo"`
	Bultos                    []PackageResponse  `json:"bultos,omitempty"`
	Analisis                  []AnalysisResponse `json:"analisis,omitempty"`
}

// MovementDetailResponse salida de una línea de movimiento.
type MovementDetailResponse struct {
	Bulto    int             `json:"bulto"`
	Cantidad decimal.Decimal `json:"cantidad"`
	Unidad   string          `json:"unidad"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID              string                   `json:"id"`
	Codigo          string                   `json:"codigo"`
	Tipo            string                   `json:"tipo"`
	Motivo          string                   `json:"motivo"`
	Fecha           time.Time                `json:"fecha"`
	Creado          time.Time                `json:"creado"`
	Cantidad        *decimal.Decimal         `json:"cantidad,omitempty"`
	Unidad          string                   `json:"unidad,omitempty"`
	DictamenInicial string                   `json:"dictamenInicial,omitempty"`
	DictamenFinal   string                   `json:"dictamenFinal,omitempty"`
	Observaciones   string                   `json:"observaciones,omitempty"`
	CodigoLote      string                   `json:"codigoLote"`
	Origen          string                   `json:"movimientoOrigen,omitempty"`
	NumeroAnalisis  string                   `json:"numeroAnalisis,omitempty"`
	Autor           string                   `json:"autor"`
	Activo          bool                     `json:"activo"`
	Detalles        []MovementDetailResponse `json:"detalles,omitempty"`
}

// OperationResponse salida de una operación registrada.
type OperationResponse struct {
	Movimiento MovementResponse  `json:"movimiento"`
	Lote       LotResponse       `json:"lote"`
	Analisis   *AnalysisResponse `json:"analisis,omitempty"`
}

// ValidationErrorResponse cuerpo de una operación rechazada por validación.
type ValidationErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors"`
}

// NewLotResponse mapea un lote sin bultos ni análisis.
func NewLotResponse(l *entity.Lot) LotResponse {
	return LotResponse{
		ID:                        l.ID,
		Codigo:                    l.Code,
		ProductoID:                l.ProductID,
		ProveedorID:               l.SupplierID,
		LoteProveedor:             l.SupplierLotCode,
		Origen:                    string(l.OriginMotive),
		FechaIngreso:              l.IntakeDate,
		FechaVencimientoProveedor: l.SupplierExpiryDate,
		FechaReanalisisProveedor:  l.SupplierReanalysisDate,
		FechaVencimiento:          l.ExpiryDate,
		FechaReanalisis:           l.ReanalysisDate,
		Dictamen:                  string(l.Verdict),
		CantidadBultos:            l.PackageCount,
		CantidadInicial:           l.InitialQuantity,
		Cantidad:                  l.Quantity,
		Unidad:                    string(l.Unit),
		Trazable:                  l.Traceable,
		Activo:                    l.Active,
	}
}

// NewAnalysisResponse mapea un análisis.
func NewAnalysisResponse(a *entity.Analysis) AnalysisResponse {
	return AnalysisResponse{
		Numero:           a.Number,
		FechaSolicitud:   a.RequestedDate,
		FechaRealizado:   a.RealizedDate,
		Dictamen:         string(a.Verdict),
		Titulo:           a.Titer,
		FechaReanalisis:  a.ReanalysisDate,
		FechaVencimiento: a.ExpiryDate,
		EnCurso:          a.InProgress(),
		Activo:           a.Active,
	}
}

// NewMovementResponse mapea un movimiento con sus detalles.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	out := MovementResponse{
		ID:              m.ID,
		Codigo:          m.Code,
		Tipo:            string(m.Kind),
		Motivo:          string(m.Motive),
		Fecha:           m.Date,
		Creado:          m.CreatedAt,
		Unidad:          string(m.Unit),
		DictamenInicial: string(m.InitialVerdict),
		DictamenFinal:   string(m.FinalVerdict),
		Observaciones:   m.Notes,
		CodigoLote:      m.LotCode,
		Origen:          m.OriginMovementID,
		NumeroAnalisis:  m.AnalysisNumber,
		Autor:           m.AuthorID,
		Activo:          m.Active,
	}
	if m.Unit != "" {
		q := m.Quantity
		out.Cantidad = &q
	}
	for _, det := range m.Details {
		out.Detalles = append(out.Detalles, MovementDetailResponse{
			Bulto:    det.PackageNumber,
			Cantidad: det.Quantity,
			Unidad:   string(det.Unit),
		})
	}
	return out
}
