package sync

import (
	"context"
	"fmt"

	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// Service fachada del motor de sincronización hacia el trigger HTTP.
// Encola y devuelve el handle de inmediato; el resultado del lote es
// observable solo por logs.
//
// Dos colas: la de facturación admite varios workers; la de reconciliación
// tiene UN worker para que dos pasadas nunca se solapen (disciplina de
// runner único del reconciler). No se deduplica por curso: encolar dos veces
// el mismo curso produce dos jobs, igual que el sistema original.
type Service struct {
	driver       *BatchDriver
	reconciler   *StatementReconciler
	invoiceQueue JobQueue
	reconQueue   JobQueue
	log          *logger.Logger
}

// NewService construye la fachada.
func NewService(driver *BatchDriver, reconciler *StatementReconciler, invoiceQueue, reconQueue JobQueue, log *logger.Logger) *Service {
	return &Service{
		driver:       driver,
		reconciler:   reconciler,
		invoiceQueue: invoiceQueue,
		reconQueue:   reconQueue,
		log:          log.Named("sync_service"),
	}
}

// EnqueueCourseInvoiceBatch somete el lote de facturas de un curso.
func (s *Service) EnqueueCourseInvoiceBatch(courseID int) (JobHandle, error) {
	name := fmt.Sprintf("course-invoices-%d", courseID)
	handle, err := s.invoiceQueue.Submit(name, func(ctx context.Context) {
		if err := s.driver.RunCourseInvoiceBatch(ctx, courseID); err != nil {
			s.log.Error().Err(err).Int("course_id", courseID).Msg("lote de facturas abortado")
		}
	})
	if err != nil {
		return JobHandle{}, err
	}
	s.log.Info().
		Str("job_id", handle.ID).
		Int("course_id", courseID).
		Msg("lote de facturas encolado")
	return handle, nil
}

// EnqueueStatementReconciliation somete una pasada de reconciliación para un
// proveedor.
func (s *Service) EnqueueStatementReconciliation(providerID int) (JobHandle, error) {
	name := fmt.Sprintf("statement-reconcile-%d", providerID)
	handle, err := s.reconQueue.Submit(name, func(ctx context.Context) {
		if err := s.reconciler.ReconcileStatements(ctx, providerID); err != nil {
			s.log.Error().Err(err).Int("provider_id", providerID).Msg("reconciliación abortada")
		}
	})
	if err != nil {
		return JobHandle{}, err
	}
	s.log.Info().
		Str("job_id", handle.ID).
		Int("provider_id", providerID).
		Msg("reconciliación de estados de cuenta encolada")
	return handle, nil
}
