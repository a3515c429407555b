package sync

import (
	"context"
	"fmt"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// ResolvedCourse contexto inmutable que el batch driver arma ANTES del
// fan-out: curso, credenciales con company ya resuelta y producto ya resuelto.
// Los workflows concurrentes solo lo leen.
type ResolvedCourse struct {
	Course    *entity.Course
	Creds     *entity.ProviderCredentials
	CompanyID int
	ProductID int
}

// InvoiceWorkflow decisión por alumno: si ya existe factura impaga para la
// referencia del curso se omite (barrera de dedup, no un error); si no, se
// crea la factura y se clasifica el resultado. Los errores remotos NO se
// tragan aquí: suben al batch driver, que es la frontera de aislamiento.
type InvoiceWorkflow struct {
	resolver *Resolver
	sage     SageClient
	log      *logger.Logger
}

// NewInvoiceWorkflow construye el workflow.
func NewInvoiceWorkflow(resolver *Resolver, sage SageClient, log *logger.Logger) *InvoiceWorkflow {
	return &InvoiceWorkflow{resolver: resolver, sage: sage, log: log.Named("invoice_workflow")}
}

// ProcessLearner ejecuta el workflow para un alumno. Solo efectos secundarios:
// el resultado se loggea, nunca se devuelve al trigger.
func (w *InvoiceWorkflow) ProcessLearner(ctx context.Context, rc *ResolvedCourse, learner *entity.Learner) error {
	customerID, err := w.resolver.ResolveCustomer(ctx, rc.Creds, learner, rc.Course)
	if err != nil {
		return err
	}

	exists, err := w.sage.HasUnpaidInvoice(ctx, rc.Creds, customerID, rc.Course.ProjectReference)
	if err != nil {
		return fmt.Errorf("consultar factura impaga (cliente %d, ref %s): %w",
			customerID, rc.Course.ProjectReference, err)
	}
	if exists {
		w.log.Info().
			Int("learner_id", learner.ID).
			Int("customer_id", customerID).
			Str("reference", rc.Course.ProjectReference).
			Msg("factura impaga existente, se omite la creación")
		return nil
	}

	result, err := w.sage.CreateInvoice(ctx, rc.Creds, InvoiceRequest{
		CustomerID: customerID,
		ProductID:  rc.ProductID,
		Value:      rc.Course.Value,
		Title:      rc.Course.Title,
		Reference:  rc.Course.ProjectReference,
	})
	if err != nil {
		return fmt.Errorf("crear factura (cliente %d, ref %s): %w",
			customerID, rc.Course.ProjectReference, err)
	}

	w.logResult(learner, customerID, result)
	return nil
}

// logResult clasifica el resultado: mensaje no vacío se loggea a INFO si
// success, WARN si no, con el messageType de Sage como etiqueta. La ausencia
// de mensaje no es un error.
func (w *InvoiceWorkflow) logResult(learner *entity.Learner, customerID int, result *entity.InvoiceResult) {
	if result == nil || result.Message == "" {
		return
	}
	msgType := result.MessageType
	if msgType == "" {
		msgType = entity.MessageTypeInfo
	}
	ev := w.log.Warn()
	if result.Success {
		ev = w.log.Info()
	}
	ev.
		Int("learner_id", learner.ID).
		Int("customer_id", customerID).
		Str("message_type", msgType).
		Str("message", result.Message).
		Msg("resultado de creación de factura en sage")
}
