package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator *billing.Orchestrator
	Documents    *billing.DocumentQueryUseCase
	Customers    *billing.CustomerUseCase
	Products     *billing.ProductUseCase
	Resolutions  *billing.ResolutionUseCase
	Settings     *billing.SettingsService
	Provisioning *billing.ProvisioningUseCase
	Folder       *billing.FolderUseCase
	JWT          config.JWTConfig
	Metrics      nethttp.Handler // opcional
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.JWT)
	api.Post("/auth/token", authHandler.Token)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWT.Secret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	adminOnly := RequireRole(jwt.RoleAdmin)
	apiReady := RequireAPIConfigured(deps.Settings)

	// Documents
	documents := protected.Group("/documents", anyRole)
	documentHandler := NewDocumentHandler(deps.Documents, deps.Orchestrator, deps.Provisioning)
	noteHandler := NewNoteHandler(deps.Orchestrator)
	documents.Get("/", documentHandler.List)
	documents.Post("/import", documentHandler.Import)
	documents.Post("/send-pending", documentHandler.SendPending)
	documents.Post("/credit-notes", noteHandler.CreditNote)
	documents.Post("/debit-notes", noteHandler.DebitNote)
	documents.Post("/adjustment-notes", noteHandler.AdjustmentNote)
	documents.Post("/support-documents", noteHandler.SupportDocument)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Get("/:id/preview", documentHandler.Preview)
	documents.Get("/:id/download/:artifact", apiReady, documentHandler.Download)
	documents.Post("/:id/send", documentHandler.Send)
	documents.Post("/:id/retry", documentHandler.Retry)

	// Folder
	folderHandler := NewFolderHandler(deps.Folder)
	protected.Post("/folder/scan", anyRole, folderHandler.Scan)

	// Customers
	customers := protected.Group("/customers", anyRole)
	customerHandler := NewCustomerHandler(deps.Customers, deps.Provisioning)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/lookup/:type/:number", apiReady, customerHandler.Lookup)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", customerHandler.Delete)

	// Products
	products := protected.Group("/products", anyRole)
	productHandler := NewProductHandler(deps.Products)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Resolutions: lectura para todos, cambios solo admin
	resolutions := protected.Group("/resolutions", anyRole)
	resolutionHandler := NewResolutionHandler(deps.Resolutions, deps.Provisioning)
	resolutions.Get("/", resolutionHandler.List)
	resolutions.Get("/:id", resolutionHandler.GetByID)
	resolutions.Post("/", adminOnly, resolutionHandler.Create)
	resolutions.Put("/:id", adminOnly, resolutionHandler.Update)
	resolutions.Delete("/:id", adminOnly, resolutionHandler.Delete)
	resolutions.Post("/:id/sync", adminOnly, apiReady, resolutionHandler.Sync)

	// Settings y aprovisionamiento (admin)
	settingsHandler := NewSettingsHandler(deps.Settings, deps.Provisioning)
	protected.Get("/settings", anyRole, settingsHandler.Get)
	protected.Put("/settings", adminOnly, settingsHandler.Update)
	provisioning := protected.Group("/provisioning", adminOnly, apiReady)
	provisioning.Post("/software", settingsHandler.ConfigureSoftware)
	provisioning.Put("/environment", settingsHandler.SwitchEnvironment)
	provisioning.Get("/numbering-ranges", settingsHandler.NumberingRanges)
	provisioning.Get("/test", settingsHandler.TestConnection)
}
