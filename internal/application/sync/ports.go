package sync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// ProviderCompanyUpdater persiste un CompanyID recién descubierto sin que el
// cliente de Sage tenga que conocer el repositorio (evita el ciclo
// cliente ↔ repositorio).
type ProviderCompanyUpdater interface {
	UpdateCompanyID(ctx context.Context, providerID, companyID int) error
}

// ProviderCompanyUpdaterFunc adaptador función → interfaz.
type ProviderCompanyUpdaterFunc func(ctx context.Context, providerID, companyID int) error

// UpdateCompanyID implementa ProviderCompanyUpdater.
func (f ProviderCompanyUpdaterFunc) UpdateCompanyID(ctx context.Context, providerID, companyID int) error {
	return f(ctx, providerID, companyID)
}

// InvoiceRequest datos para crear una factura en Sage.
type InvoiceRequest struct {
	CustomerID int
	ProductID  int
	Value      decimal.Decimal
	Title      string
	Reference  string
}

// CustomerResult id del cliente creado/encontrado en Sage más el código de
// respuesta del API (se persiste junto al id en el LMS).
type CustomerResult struct {
	ID           int
	ResponseCode int
}

// SageClient puerto de salida hacia el ledger contable. Toda operación es
// cancelable vía ctx y puede fallar con error de transporte o rechazo remoto.
type SageClient interface {
	// EnsureCompanyID resuelve el CompanyID de las credenciales: si ya es >0
	// lo devuelve sin llamada remota; si no, lo consulta en Sage, lo cachea en
	// creds y lo persiste vía updater (updater puede ser nil).
	EnsureCompanyID(ctx context.Context, creds *entity.ProviderCredentials, updater ProviderCompanyUpdater) (int, error)

	// GetOrCreateProduct busca el item por la referencia del curso y lo crea
	// si no existe. Devuelve el id del producto en Sage.
	GetOrCreateProduct(ctx context.Context, creds *entity.ProviderCredentials, course *entity.Course) (int, error)

	// GetOrCreateCustomer crea (o devuelve) el cliente de Sage para el alumno.
	GetOrCreateCustomer(ctx context.Context, creds *entity.ProviderCredentials, learner *entity.Learner, course *entity.Course) (CustomerResult, error)

	// HasUnpaidInvoice indica si ya existe una factura impaga para
	// (cliente, referencia) — la barrera de dedup del workflow.
	HasUnpaidInvoice(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error)

	// CreateInvoice crea la factura y devuelve el resultado clasificable.
	CreateInvoice(ctx context.Context, creds *entity.ProviderCredentials, req InvoiceRequest) (*entity.InvoiceResult, error)

	// GetCustomerStatements página del estado de cuenta de todos los clientes
	// de la company. hasMore indica si quedan páginas.
	GetCustomerStatements(ctx context.Context, creds *entity.ProviderCredentials, page, pageSize int) (entries []entity.StatementEntry, hasMore bool, err error)
}

// JobHandle recibo opaco de un job encolado: el trigger lo recibe de
// inmediato y nunca los resultados por alumno (fire-and-forget).
type JobHandle struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobQueue puerto hacia el ejecutor en background. Submit no bloquea en la
// ejecución; retorna el handle o error si la cola está llena/cerrada.
type JobQueue interface {
	Submit(name string, fn func(ctx context.Context)) (JobHandle, error)
}
