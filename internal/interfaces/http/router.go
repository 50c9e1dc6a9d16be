package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
	"github.com/jhoicas/despensa-api/internal/application/lists"
	"github.com/jhoicas/despensa-api/internal/application/session"
	"github.com/jhoicas/despensa-api/internal/application/stock"
	"github.com/jhoicas/despensa-api/internal/infrastructure/notice"
)

// RouterDeps dependencias para el router. Metrics nil = sin /metrics.
type RouterDeps struct {
	StockUC  *stock.UseCase
	ListsUC  *lists.UseCase
	Inbox    *alerting.Inbox
	Sessions *session.Manager
	Notices  *notice.Feed
	Verifier TokenVerifier
	Metrics  nethttp.Handler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.Verifier))

	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup.Get("/", stockHandler.List)
	stockGroup.Post("/", stockHandler.Add)
	stockGroup.Get("/low", stockHandler.Low)
	stockGroup.Get("/report", stockHandler.Report)
	stockGroup.Get("/:id", stockHandler.Get)
	stockGroup.Patch("/:id", stockHandler.Update)
	stockGroup.Delete("/:id", stockHandler.Delete)
	stockGroup.Post("/:id/restock", stockHandler.Restock)
	stockGroup.Put("/:id/image", stockHandler.UploadImage)

	listGroup := protected.Group("/lists")
	listHandler := NewListHandler(deps.ListsUC)
	listGroup.Get("/", listHandler.List)
	listGroup.Post("/", listHandler.Create)
	listGroup.Get("/:id", listHandler.Get)
	listGroup.Delete("/:id", listHandler.Delete)
	listGroup.Post("/:id/items", listHandler.AddItem)
	listGroup.Patch("/:id/items/:itemId", listHandler.UpdateItem)
	listGroup.Delete("/:id/items/:itemId", listHandler.DeleteItem)

	notifGroup := protected.Group("/notifications")
	notifHandler := NewNotificationHandler(deps.Inbox)
	notifGroup.Get("/", notifHandler.List)
	notifGroup.Post("/:id/seen", notifHandler.Dismiss)
	notifGroup.Delete("/:id", notifHandler.Delete)

	dashboardHandler := NewDashboardHandler(deps.Sessions)
	protected.Get("/dashboard", dashboardHandler.Get)
	protected.Delete("/session", dashboardHandler.End)

	noticeHandler := NewNoticeHandler(deps.Notices)
	protected.Get("/notices", noticeHandler.Drain)
}
