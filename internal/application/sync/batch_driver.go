package sync

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// DefaultMaxConcurrency cap de workflows de factura en vuelo por lote.
// El API de Sage es sensible a la tasa y al número de conexiones.
const DefaultMaxConcurrency = 5

// BatchDriver recorre los alumnos de un curso y dispara el workflow de
// factura de cada uno bajo un cap de concurrencia. El fallo de un alumno se
// registra y NO cancela a los demás: fallo parcial esperado y aislado.
type BatchDriver struct {
	repo           repository.LmsRepository
	resolver       *Resolver
	workflow       *InvoiceWorkflow
	maxConcurrency int
	log            *logger.Logger
}

// NewBatchDriver construye el driver. maxConcurrency <= 0 usa el default.
func NewBatchDriver(repo repository.LmsRepository, resolver *Resolver, workflow *InvoiceWorkflow, maxConcurrency int, log *logger.Logger) *BatchDriver {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &BatchDriver{
		repo:           repo,
		resolver:       resolver,
		workflow:       workflow,
		maxConcurrency: maxConcurrency,
		log:            log.Named("batch_driver"),
	}
}

// RunCourseInvoiceBatch ejecuta el lote completo de un curso.
//
// Curso inexistente o sin alumnos terminan el job sin error (no-op terminal,
// solo logs). Un fallo al resolver company o producto SÍ aborta el lote:
// son prerrequisitos compartidos por todos los alumnos y no hay fallback
// parcial seguro. La resolución ocurre estrictamente antes del fan-out, de
// modo que ningún campo cacheado se escribe ya con workers en vuelo.
func (d *BatchDriver) RunCourseInvoiceBatch(ctx context.Context, courseID int) error {
	course, err := d.repo.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("cargar curso %d: %w", courseID, err)
	}
	if course == nil {
		d.log.Warn().Int("course_id", courseID).Msg("curso inexistente, lote terminado sin acción")
		return nil
	}

	creds, err := d.repo.GetCredentials(ctx, course.ProviderID)
	if err != nil {
		return fmt.Errorf("cargar credenciales del proveedor %d: %w", course.ProviderID, err)
	}
	if creds == nil {
		return fmt.Errorf("proveedor %d sin credenciales de sage", course.ProviderID)
	}

	companyID, err := d.resolver.ResolveCompany(ctx, creds)
	if err != nil {
		return err
	}
	productID, err := d.resolver.ResolveProduct(ctx, creds, course)
	if err != nil {
		return err
	}

	learners, err := d.repo.GetLearnersForCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("cargar alumnos del curso %d: %w", courseID, err)
	}
	if len(learners) == 0 {
		d.log.Info().Int("course_id", courseID).Msg("curso sin alumnos, lote terminado sin acción")
		return nil
	}

	rc := &ResolvedCourse{
		Course:    course,
		Creds:     creds,
		CompanyID: companyID,
		ProductID: productID,
	}

	var failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(d.maxConcurrency)
	for _, learner := range learners {
		learner := learner
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					failed.Add(1)
					d.log.Error().
						Int("course_id", courseID).
						Int("learner_id", learner.ID).
						Interface("panic", rec).
						Msg("pánico en workflow de factura")
				}
			}()
			if err := d.workflow.ProcessLearner(ctx, rc, learner); err != nil {
				failed.Add(1)
				d.log.Error().
					Err(err).
					Int("course_id", courseID).
					Int("learner_id", learner.ID).
					Msg("workflow de factura falló para el alumno")
			}
			// Nunca se devuelve el error: el lote no cancela a los hermanos.
			return nil
		})
	}
	_ = g.Wait()

	d.log.Info().
		Int("course_id", courseID).
		Int("learners", len(learners)).
		Int32("failed", failed.Load()).
		Msg("lote de facturas del curso completado")
	return nil
}
