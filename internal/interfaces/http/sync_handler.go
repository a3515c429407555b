package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	appsync "github.com/jhoicas/sage-sync-api/internal/application/sync"
	"github.com/jhoicas/sage-sync-api/internal/application/dto"
	"github.com/jhoicas/sage-sync-api/internal/domain"
)

// SyncHandler dispara los jobs de sincronización. Las respuestas de trigger
// son siempre un recibo inmediato (202); el resultado del lote nunca viaja
// al caller. La resolución de referencias de documento sí es síncrona.
type SyncHandler struct {
	service *appsync.Service
	lookup  *appsync.DocumentLookup
}

// NewSyncHandler construye el handler de sincronización.
func NewSyncHandler(service *appsync.Service, lookup *appsync.DocumentLookup) *SyncHandler {
	return &SyncHandler{service: service, lookup: lookup}
}

// TriggerCourseInvoices godoc
// @Summary      Encolar lote de facturas de un curso
// @Tags         sync
// @Produce      json
// @Param        id  path  int  true  "ID del curso"
// @Success      202  {object}  dto.JobResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sync/courses/{id}/invoices [post]
func (h *SyncHandler) TriggerCourseInvoices(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de curso inválido"})
	}
	handle, err := h.service.EnqueueCourseInvoiceBatch(courseID)
	if err != nil {
		return queueError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(toJobResponse(handle))
}

// TriggerStatementReconciliation godoc
// @Summary      Encolar reconciliación de estados de cuenta de un proveedor
// @Tags         sync
// @Produce      json
// @Param        id  path  int  true  "ID del proveedor"
// @Success      202  {object}  dto.JobResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sync/providers/{id}/statements [post]
func (h *SyncHandler) TriggerStatementReconciliation(c *fiber.Ctx) error {
	providerID, err := strconv.Atoi(c.Params("id"))
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de proveedor inválido"})
	}
	handle, err := h.service.EnqueueStatementReconciliation(providerID)
	if err != nil {
		return queueError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(toJobResponse(handle))
}

// ResolveDocumentReference godoc
// @Summary      Resolver la referencia de un documento de Sage a curso/alumno
// @Tags         sync
// @Produce      json
// @Param        id         path   int     true  "ID del proveedor"
// @Param        reference  query  string  true  "Referencia del documento"
// @Success      200  {object}  dto.DocumentResolutionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/providers/{id}/documents/resolution [get]
func (h *SyncHandler) ResolveDocumentReference(c *fiber.Ctx) error {
	providerID, err := strconv.Atoi(c.Params("id"))
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de proveedor inválido"})
	}
	reference := c.Query("reference")

	provider, resolution, err := h.lookup.ResolveDocumentReference(c.UserContext(), providerID, reference)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reference es requerido"})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "referencia sin curso asociado para el proveedor"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	return c.JSON(dto.DocumentResolutionResponse{
		ProviderID:    provider.ID,
		ProviderName:  provider.Name,
		Reference:     resolution.Reference,
		CourseID:      resolution.CourseID,
		CourseTitle:   resolution.CourseTitle,
		SageProductID: resolution.SageProductID,
		LearnerID:     resolution.LearnerID,
	})
}

func toJobResponse(handle appsync.JobHandle) dto.JobResponse {
	return dto.JobResponse{
		JobID:      handle.ID,
		Name:       handle.Name,
		EnqueuedAt: handle.EnqueuedAt,
		Status:     "queued",
	}
}

func queueError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrQueueFull) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "QUEUE_FULL", Message: "cola de jobs llena, reintente más tarde"})
	}
	if errors.Is(err, domain.ErrQueueClosed) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "QUEUE_CLOSED", Message: "el servicio está apagándose"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
