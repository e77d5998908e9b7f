package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Lotes-api/internal/application/dto"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// LotHandler maneja las operaciones del libro de lotes (protegido).
type LotHandler struct {
	svc   *lot.Service
	sheet *lot.SheetUseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(svc *lot.Service, sheet *lot.SheetUseCase) *LotHandler {
	return &LotHandler{svc: svc, sheet: sheet}
}

// RegisterPurchase godoc
// @Summary      Ingreso de lote por compra
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "producto, proveedor, bultos y cantidades"
// @Success      201   {object}  dto.OperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/compras [post]
func (h *LotHandler) RegisterPurchase(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterPurchaseIntake(c.UserContext(), intakeInput(in))
	return respondResult(c, res, err)
}

// RegisterOwnProduction godoc
// @Summary      Ingreso de lote por producción propia
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "producto, bultos y cantidades"
// @Success      201   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/produccion [post]
func (h *LotHandler) RegisterOwnProduction(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterOwnProduction(c.UserContext(), intakeInput(in))
	return respondResult(c, res, err)
}

// RegisterSampling godoc
// @Summary      Muestreo de un bulto
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string               true  "Código de lote"
// @Param        body    body  dto.SamplingRequest  true  "muestra y número de análisis"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/muestreos [post]
func (h *LotHandler) RegisterSampling(c *fiber.Ctx) error {
	var in dto.SamplingRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterSampling(c.UserContext(), lot.SamplingInput{
		LotCode:        c.Params("codigo"),
		Line:           packageLine(in.Muestra),
		Date:           in.FechaMovimiento,
		AnalysisNumber: strings.TrimSpace(in.NumeroAnalisis),
		Notes:          in.Observaciones,
	})
	return respondResult(c, res, err)
}

// RegisterAnalysisResult godoc
// @Summary      Resultado de análisis
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                     true  "Código de lote"
// @Param        body    body  dto.AnalysisResultRequest  true  "dictamen, fechas y título"
// @Success      201     {object}  dto.OperationResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/analisis [post]
func (h *LotHandler) RegisterAnalysisResult(c *fiber.Ctx) error {
	var in dto.AnalysisResultRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterAnalysisResult(c.UserContext(), lot.AnalysisResultInput{
		LotCode:        c.Params("codigo"),
		AnalysisNumber: strings.TrimSpace(in.NumeroAnalisis),
		Verdict:        entity.Verdict(strings.ToUpper(strings.TrimSpace(in.DictamenFinal))),
		Date:           in.FechaMovimiento,
		RealizedDate:   in.FechaRealizado,
		ReanalysisDate: in.FechaReanalisis,
		ExpiryDate:     in.FechaVencimiento,
		Titer:          in.Titulo,
		Notes:          in.Observaciones,
	})
	return respondResult(c, res, err)
}

// Release godoc
// @Summary      Liberación de un lote aprobado
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                    true  "Código de lote"
// @Param        body    body  dto.VerdictChangeRequest  false "fecha y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/liberacion [post]
func (h *LotHandler) Release(c *fiber.Ctx) error {
	return h.verdictChange(c, h.svc.ReleaseLot)
}

// MarketRecall godoc
// @Summary      Retiro de mercado
// @Tags         lotes
// @Security     Bearer
// @Param        codigo  path  string                    true  "Código de lote"
// @Param        body    body  dto.VerdictChangeRequest  false "fecha y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/retiro-mercado [post]
func (h *LotHandler) MarketRecall(c *fiber.Ctx) error {
	return h.verdictChange(c, h.svc.RegisterMarketRecall)
}

// Expire godoc
// @Summary      Vencimiento de un lote
// @Tags         lotes
// @Security     Bearer
// @Param        codigo  path  string                    true  "Código de lote"
// @Param        body    body  dto.VerdictChangeRequest  false "fecha y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/vencimiento [post]
func (h *LotHandler) Expire(c *fiber.Ctx) error {
	return h.verdictChange(c, h.svc.RegisterExpiry)
}

// SupplierReturn godoc
// @Summary      Devolución al proveedor de todo el saldo del lote
// @Tags         lotes
// @Security     Bearer
// @Param        codigo  path  string                    true  "Código de lote"
// @Param        body    body  dto.VerdictChangeRequest  false "fecha y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/devolucion-proveedor [post]
func (h *LotHandler) SupplierReturn(c *fiber.Ctx) error {
	return h.verdictChange(c, h.svc.RegisterSupplierReturn)
}

func (h *LotHandler) verdictChange(c *fiber.Ctx, op func(ctx context.Context, in lot.VerdictChangeInput) (*lot.Result, error)) error {
	var in dto.VerdictChangeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	res, err := op(c.UserContext(), lot.VerdictChangeInput{
		LotCode: c.Params("codigo"),
		Date:    in.FechaMovimiento,
		Notes:   in.Observaciones,
	})
	return respondResult(c, res, err)
}

// RegisterSale godoc
// @Summary      Venta distribuida entre bultos
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                   true  "Código de lote"
// @Param        body    body  dto.DistributionRequest  true  "cantidad total y líneas por bulto"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/ventas [post]
func (h *LotHandler) RegisterSale(c *fiber.Ctx) error {
	return h.distribution(c, h.svc.RegisterSale)
}

// RegisterConsumption godoc
// @Summary      Consumo de producción distribuido entre bultos
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                   true  "Código de lote"
// @Param        body    body  dto.DistributionRequest  true  "cantidad total y líneas por bulto"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/consumos [post]
func (h *LotHandler) RegisterConsumption(c *fiber.Ctx) error {
	return h.distribution(c, h.svc.RegisterProductionConsumption)
}

func (h *LotHandler) distribution(c *fiber.Ctx, op func(ctx context.Context, in lot.DistributionInput) (*lot.Result, error)) error {
	var in dto.DistributionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := op(c.UserContext(), lot.DistributionInput{
		LotCode:  c.Params("codigo"),
		Date:     in.FechaMovimiento,
		Quantity: in.Cantidad.Cantidad,
		Unit:     parseUnit(in.Cantidad.Unidad),
		Lines:    packageLines(in.Bultos),
		Notes:    in.Observaciones,
	})
	return respondResult(c, res, err)
}

// RegisterSaleReturn godoc
// @Summary      Devolución de cliente sobre una venta
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                 true  "Código de lote"
// @Param        body    body  dto.SaleReturnRequest  true  "movimiento de venta y líneas devueltas"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/devoluciones-venta [post]
func (h *LotHandler) RegisterSaleReturn(c *fiber.Ctx) error {
	var in dto.SaleReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterSaleReturn(c.UserContext(), lot.SaleReturnInput{
		LotCode: c.Params("codigo"),
		SaleRef: strings.TrimSpace(in.MovimientoVenta),
		Date:    in.FechaMovimiento,
		Lines:   packageLines(in.Bultos),
		Notes:   in.Observaciones,
	})
	return respondResult(c, res, err)
}

// RegisterAdjustment godoc
// @Summary      Ajuste de stock sobre un bulto
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                      true  "Código de lote"
// @Param        body    body  dto.StockAdjustmentRequest  true  "bulto, cantidad y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/lotes/{codigo}/ajustes [post]
func (h *LotHandler) RegisterAdjustment(c *fiber.Ctx) error {
	var in dto.StockAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.RegisterStockAdjustment(c.UserContext(), lot.StockAdjustmentInput{
		LotCode: c.Params("codigo"),
		Line:    packageLine(in.Ajuste),
		Date:    in.FechaMovimiento,
		Notes:   in.Observaciones,
	})
	return respondResult(c, res, err)
}

// Reverse godoc
// @Summary      Reversa del último movimiento vigente de un lote
// @Tags         movimientos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        codigo  path  string                    true  "Código o ID del movimiento"
// @Param        body    body  dto.VerdictChangeRequest  false "fecha y observaciones"
// @Success      201     {object}  dto.OperationResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ValidationErrorResponse
// @Router       /api/movimientos/{codigo}/reverso [post]
func (h *LotHandler) Reverse(c *fiber.Ctx) error {
	var in dto.VerdictChangeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	res, err := h.svc.ReverseMovement(c.UserContext(), lot.ReversalInput{
		MovementRef: c.Params("codigo"),
		Date:        in.FechaMovimiento,
		Notes:       in.Observaciones,
	})
	return respondResult(c, res, err)
}

// ExpireDue godoc
// @Summary      Vence los lotes en cuarentena o aprobados cuya fecha límite ya pasó
// @Tags         lotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExpireDueRequest  false "fecha de corte (por defecto, ahora)"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse "fecha de corte futura"
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lotes/vencimientos [post]
func (h *LotHandler) ExpireDue(c *fiber.Ctx) error {
	var in dto.ExpireDueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	asOf := h.svc.Now()
	if in.Fecha != nil {
		asOf = *in.Fecha
	}
	results, err := h.svc.ExpireDue(c.UserContext(), asOf)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.OperationResponse, 0, len(results))
	for _, r := range results {
		out = append(out, operationResponse(r))
	}
	return c.JSON(fiber.Map{
		"total":    len(out),
		"vencidos": out,
	})
}

// Get godoc
// @Summary      Ficha de un lote
// @Tags         lotes
// @Security     Bearer
// @Produce      json
// @Param        codigo  path  string  true  "Código de lote"
// @Success      200     {object}  dto.LotResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/lotes/{codigo} [get]
func (h *LotHandler) Get(c *fiber.Ctx) error {
	view, err := h.svc.GetLot(c.UserContext(), c.Params("codigo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lotViewResponse(view))
}

// ListMovements godoc
// @Summary      Historial de movimientos de un lote
// @Tags         lotes
// @Security     Bearer
// @Produce      json
// @Param        codigo  path  string  true  "Código de lote"
// @Success      200     {array}   dto.MovementResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/lotes/{codigo}/movimientos [get]
func (h *LotHandler) ListMovements(c *fiber.Ctx) error {
	movements, err := h.svc.ListMovements(c.UserContext(), c.Params("codigo"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar lotes
// @Tags         lotes
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/lotes [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return invalidBody(c)
	}
	page.DefaultPage()
	lots, err := h.svc.ListLots(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		items = append(items, dto.NewLotResponse(l))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// DownloadSheet godoc
// @Summary      Ficha de trazabilidad del lote en PDF
// @Tags         lotes
// @Security     Bearer
// @Produce      application/pdf
// @Param        codigo  path  string  true  "Código de lote"
// @Success      200     {file}    binary
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/lotes/{codigo}/ficha.pdf [get]
func (h *LotHandler) DownloadSheet(c *fiber.Ctx) error {
	doc, filename, err := h.sheet.DownloadLotSheet(c.UserContext(), c.Params("codigo"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(doc)
}

// ── mapeo ─────────────────────────────────────────────────────────────────────

func intakeInput(in dto.IntakeRequest) lot.IntakeInput {
	out := lot.IntakeInput{
		LotCode:                strings.TrimSpace(in.CodigoLote),
		ProductID:              in.ProductoID,
		SupplierID:             in.ProveedorID,
		ManufacturerID:         in.FabricanteID,
		OriginCountry:          in.PaisOrigen,
		SupplierLotCode:        in.LoteProveedor,
		IntakeDate:             in.FechaIngreso,
		SupplierExpiryDate:     in.FechaVencimientoProveedor,
		SupplierReanalysisDate: in.FechaReanalisisProveedor,
		PackageCount:           in.CantidadBultos,
		Quantity:               in.Cantidad.Cantidad,
		Unit:                   parseUnit(in.Cantidad.Unidad),
		Traceable:              in.Trazable,
		Notes:                  in.Observaciones,
	}
	for _, q := range in.CantidadesBultos {
		out.PackageQuantities = append(out.PackageQuantities, unit.Of(q.Cantidad, parseUnit(q.Unidad)))
	}
	return out
}

func packageLine(l dto.PackageLineDTO) lot.PackageLine {
	return lot.PackageLine{PackageNumber: l.Bulto, Quantity: l.Cantidad, Unit: parseUnit(l.Unidad)}
}

func packageLines(lines []dto.PackageLineDTO) []lot.PackageLine {
	out := make([]lot.PackageLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, packageLine(l))
	}
	return out
}

// parseUnit acepta código o símbolo. Una unidad desconocida pasa tal cual para que la
// validación la rechace sobre su campo.
func parseUnit(s string) unit.Unit {
	u, err := unit.Parse(s)
	if err != nil {
		return unit.Unit(strings.ToUpper(strings.TrimSpace(s)))
	}
	return u
}

func lotViewResponse(v *lot.LotView) dto.LotResponse {
	out := dto.NewLotResponse(v.Lot)
	if v.Product != nil {
		out.ProductoNombre = v.Product.Name
	}
	q := v.DisplayQuantity
	out.CantidadSugerida = &q
	out.UnidadSugerida = string(v.DisplayUnit)
	out.TrazasActivas = v.ActiveTraces
	for _, pv := range v.Packages {
		out.Bultos = append(out.Bultos, packageResponse(pv.Package))
		last := &out.Bultos[len(out.Bultos)-1]
		last.CantidadSugerida = pv.DisplayQuantity
		last.UnidadSugerida = string(pv.DisplayUnit)
	}
	for _, a := range v.Analyses {
		out.Analisis = append(out.Analisis, dto.NewAnalysisResponse(a))
	}
	return out
}

func packageResponse(p *entity.Package) dto.PackageResponse {
	q, u := unit.ToDisplay(p.Unit, p.Quantity)
	return dto.PackageResponse{
		Numero:           p.Number,
		CantidadInicial:  p.InitialQuantity,
		Cantidad:         p.Quantity,
		Unidad:           string(p.Unit),
		CantidadSugerida: q,
		UnidadSugerida:   string(u),
		Estado:           string(p.State),
		Activo:           p.Active,
	}
}

func operationResponse(res *lot.Result) dto.OperationResponse {
	out := dto.OperationResponse{
		Movimiento: dto.NewMovementResponse(res.Movement),
		Lote:       dto.NewLotResponse(res.Lot),
	}
	for _, p := range res.Packages {
		out.Lote.Bultos = append(out.Lote.Bultos, packageResponse(p))
	}
	if res.Analysis != nil {
		a := dto.NewAnalysisResponse(res.Analysis)
		out.Analisis = &a
	}
	return out
}

// ── respuestas ────────────────────────────────────────────────────────────────

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// respondResult responde 201 con el movimiento registrado o 422 con los errores de campo.
func respondResult(c *fiber.Ctx, res *lot.Result, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	if !res.OK() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Code:    "VALIDATION",
			Message: res.Errors.Error(),
			Errors:  res.Errors,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(res))
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrOperatorMissing):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "operador no identificado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "lote no encontrado"})
	case errors.Is(err, domain.ErrIntegrity):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INTEGRITY", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
