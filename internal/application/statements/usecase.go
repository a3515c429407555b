package statements

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/sage-sync-api/internal/application/dto"
	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// StatementPDFRenderer puerto de renderizado. La implementación vive en
// infrastructure/pdf (Maroto).
type StatementPDFRenderer interface {
	RenderStatementPDF(ctx context.Context, detail *entity.StatementDetail) ([]byte, error)
}

// UseCase listados y descarga en PDF de estados de cuenta reconciliados.
// El PDF se renderiza una sola vez y se cachea en disco: mientras el header no
// cambie, las descargas siguientes sirven el archivo ya generado.
type UseCase struct {
	repo     repository.StatementRepository
	renderer StatementPDFRenderer
	pdfDir   string
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.StatementRepository, renderer StatementPDFRenderer, pdfDir string, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, renderer: renderer, pdfDir: pdfDir, log: log.Named("statements")}
}

// List lista los estados de cuenta de un proveedor, con filtro opcional por
// nombre de cliente.
func (uc *UseCase) List(ctx context.Context, providerID int, search string) ([]dto.StatementResponse, error) {
	infos, err := uc.repo.ListProviderStatements(ctx, providerID, search)
	if err != nil {
		return nil, fmt.Errorf("listar estados de cuenta: %w", err)
	}
	out := make([]dto.StatementResponse, 0, len(infos))
	for _, s := range infos {
		out = append(out, dto.StatementResponse{
			ID:           s.ID,
			CustomerID:   s.CustomerID,
			CustomerName: s.CustomerName,
			TotalDue:     s.TotalDue.StringFixed(2),
			TotalPaid:    s.TotalPaid.StringFixed(2),
			HasPDF:       s.PDFPath != "",
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return out, nil
}

// DownloadPDF devuelve la ruta en disco del PDF del estado de cuenta,
// renderizándolo si todavía no existe.
//
// Retorna:
//   - (path, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound     si el estado de cuenta no existe o no pertenece al proveedor.
func (uc *UseCase) DownloadPDF(ctx context.Context, providerID, statementID int) (path, filename string, err error) {
	detail, err := uc.repo.GetStatementDetail(ctx, providerID, statementID)
	if err != nil {
		return "", "", fmt.Errorf("pdf: obtener estado de cuenta: %w", err)
	}
	if detail == nil {
		return "", "", domain.ErrNotFound
	}

	filename = fmt.Sprintf("estado_cuenta_%d_%d.pdf", providerID, statementID)

	// Cache en disco: servir el archivo existente si sigue ahí.
	if detail.Header.PDFPath != "" {
		if _, statErr := os.Stat(detail.Header.PDFPath); statErr == nil {
			return detail.Header.PDFPath, filename, nil
		}
		uc.log.Warn().
			Int("statement_id", statementID).
			Str("path", detail.Header.PDFPath).
			Msg("pdf registrado pero ausente en disco, se re-renderiza")
	}

	pdfBytes, err := uc.renderer.RenderStatementPDF(ctx, detail)
	if err != nil {
		return "", "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	if err := os.MkdirAll(uc.pdfDir, 0o755); err != nil {
		return "", "", fmt.Errorf("pdf: crear directorio: %w", err)
	}
	path = filepath.Join(uc.pdfDir, filename)
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return "", "", fmt.Errorf("pdf: escribir archivo: %w", err)
	}
	if err := uc.repo.SaveStatementPDFPath(ctx, statementID, path); err != nil {
		return "", "", fmt.Errorf("pdf: persistir ruta: %w", err)
	}

	uc.log.Info().
		Int("statement_id", statementID).
		Str("path", path).
		Msg("pdf de estado de cuenta renderizado")
	return path, filename, nil
}
