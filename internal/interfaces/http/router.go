package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sage-sync-api/internal/application/auth"
	"github.com/jhoicas/sage-sync-api/internal/application/statements"
	appsync "github.com/jhoicas/sage-sync-api/internal/application/sync"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	SyncService    *appsync.Service
	DocumentLookup *appsync.DocumentLookup
	StatementsUC   *statements.UseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Registro de usuarios: solo admin
	authGroup.Post("/register", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin), authHandler.Register)

	// Triggers de sincronización (protegido)
	syncHandler := NewSyncHandler(deps.SyncService, deps.DocumentLookup)
	syncGroup := protected.Group("/sync")
	syncGroup.Post("/courses/:id/invoices", syncHandler.TriggerCourseInvoices)
	syncGroup.Post("/providers/:id/statements", syncHandler.TriggerStatementReconciliation)

	// Estados de cuenta y lookup de documentos (protegido)
	statementHandler := NewStatementHandler(deps.StatementsUC)
	providers := protected.Group("/providers")
	providers.Get("/:id/statements", statementHandler.List)
	providers.Get("/:id/statements/:statementId/pdf", statementHandler.DownloadPDF)
	providers.Get("/:id/documents/resolution", syncHandler.ResolveDocumentReference)
}
