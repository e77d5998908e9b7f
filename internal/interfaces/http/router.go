package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Lotes-api/internal/application/auth"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/application/usecase"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LotService *lot.Service
	LotSheet   *lot.SheetUseCase
	AuthUC     *auth.AuthUseCase
	ProductUC  *usecase.ProductUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (login público; alta de operadores sólo ADMIN)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/operators",
		AuthMiddleware(deps.JWTSecret),
		RequireRole(string(entity.RoleAdmin)),
		authHandler.RegisterOperator,
	)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	lotHandler := NewLotHandler(deps.LotService, deps.LotSheet)
	productHandler := NewProductHandler(deps.ProductUC)

	// Catálogo: lectura para todos, escritura sólo ADMIN
	productos := protected.Group("/productos")
	productos.Get("/", productHandler.List)
	productos.Get("/:id", productHandler.GetByID)
	productos.Post("/", RequireRole(string(entity.RoleAdmin)), productHandler.Create)
	productos.Put("/:id", RequireRole(string(entity.RoleAdmin)), productHandler.Update)

	lotes := protected.Group("/lotes")
	lotes.Get("/", lotHandler.List)
	lotes.Post("/compras", lotHandler.RegisterPurchase)
	lotes.Post("/produccion", lotHandler.RegisterOwnProduction)
	lotes.Post("/vencimientos", lotHandler.ExpireDue)
	lotes.Get("/:codigo", lotHandler.Get)
	lotes.Get("/:codigo/movimientos", lotHandler.ListMovements)
	lotes.Get("/:codigo/ficha.pdf", lotHandler.DownloadSheet)
	lotes.Post("/:codigo/muestreos", lotHandler.RegisterSampling)
	lotes.Post("/:codigo/analisis", lotHandler.RegisterAnalysisResult)
	lotes.Post("/:codigo/liberacion", lotHandler.Release)
	lotes.Post("/:codigo/ventas", lotHandler.RegisterSale)
	lotes.Post("/:codigo/consumos", lotHandler.RegisterConsumption)
	lotes.Post("/:codigo/devoluciones-venta", lotHandler.RegisterSaleReturn)
	lotes.Post("/:codigo/devolucion-proveedor", lotHandler.SupplierReturn)
	lotes.Post("/:codigo/retiro-mercado", lotHandler.MarketRecall)
	lotes.Post("/:codigo/ajustes", lotHandler.RegisterAdjustment)
	lotes.Post("/:codigo/vencimiento", lotHandler.Expire)

	movimientos := protected.Group("/movimientos")
	movimientos.Post("/:codigo/reverso", lotHandler.Reverse)
}
