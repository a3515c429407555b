package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sage-sync-api/internal/application/dto"
	"github.com/jhoicas/sage-sync-api/internal/application/statements"
	"github.com/jhoicas/sage-sync-api/internal/domain"
)

// StatementHandler listados y descarga en PDF de estados de cuenta.
type StatementHandler struct {
	uc *statements.UseCase
}

// NewStatementHandler construye el handler de estados de cuenta.
func NewStatementHandler(uc *statements.UseCase) *StatementHandler {
	return &StatementHandler{uc: uc}
}

// List godoc
// @Summary      Listar estados de cuenta de un proveedor
// @Tags         statements
// @Produce      json
// @Param        id      path   int     true   "ID del proveedor"
// @Param        search  query  string  false  "filtro por nombre de cliente"
// @Success      200  {array}   dto.StatementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/providers/{id}/statements [get]
func (h *StatementHandler) List(c *fiber.Ctx) error {
	providerID, err := strconv.Atoi(c.Params("id"))
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de proveedor inválido"})
	}
	list, err := h.uc.List(c.UserContext(), providerID, c.Query("search"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// DownloadPDF godoc
// @Summary      Descargar el PDF de un estado de cuenta
// @Tags         statements
// @Produce      application/pdf
// @Param        id           path  int  true  "ID del proveedor"
// @Param        statementId  path  int  true  "ID del estado de cuenta"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/providers/{id}/statements/{statementId}/pdf [get]
func (h *StatementHandler) DownloadPDF(c *fiber.Ctx) error {
	providerID, err := strconv.Atoi(c.Params("id"))
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de proveedor inválido"})
	}
	statementID, err := strconv.Atoi(c.Params("statementId"))
	if err != nil || statementID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de estado de cuenta inválido"})
	}
	path, filename, err := h.uc.DownloadPDF(c.UserContext(), providerID, statementID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "estado de cuenta no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendFile(path)
}
