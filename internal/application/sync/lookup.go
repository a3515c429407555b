package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// DocumentLookup camino inverso al de facturación: a partir de la referencia
// de un documento en Sage recupera el curso (y el alumno, cuando es
// determinable) que lo originó. Operación síncrona, sin colas.
type DocumentLookup struct {
	lms repository.LmsRepository
	log *logger.Logger
}

// NewDocumentLookup construye el lookup.
func NewDocumentLookup(lms repository.LmsRepository, log *logger.Logger) *DocumentLookup {
	return &DocumentLookup{lms: lms, log: log.Named("document_lookup")}
}

// ResolveDocumentReference resuelve una referencia de documento dentro de un
// proveedor. Devuelve también los datos del proveedor para la respuesta.
//
// Retorna domain.ErrInvalidInput con referencia vacía y domain.ErrNotFound
// si el proveedor no existe o la referencia no mapea a ningún curso.
// LearnerID queda en 0 cuando el curso tiene más de un alumno inscrito: la
// referencia sola no identifica a uno.
func (l *DocumentLookup) ResolveDocumentReference(ctx context.Context, providerID int, reference string) (*entity.ProviderInfo, *entity.CourseResolution, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil, domain.ErrInvalidInput
	}

	provider, err := l.lms.GetProviderInfo(ctx, providerID)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar proveedor %d: %w", providerID, err)
	}
	if provider == nil {
		return nil, nil, domain.ErrNotFound
	}

	resolution, err := l.lms.ResolveCourseAndLearner(ctx, providerID, reference)
	if err != nil {
		return nil, nil, fmt.Errorf("resolver referencia %q: %w", reference, err)
	}
	if resolution == nil {
		l.log.Info().
			Int("provider_id", providerID).
			Str("reference", reference).
			Msg("referencia de documento sin curso asociado")
		return nil, nil, domain.ErrNotFound
	}
	return provider, resolution, nil
}
