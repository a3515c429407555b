package sync

import (
	"context"
	"fmt"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// Resolver cadena de resolución de entidades: company → producto → cliente.
// Cada Resolve* es idempotente: con un id cacheado distinto de 0 no hay
// llamada remota. Los errores NO se reintentan aquí; la política de reintento
// es del caller (el batch driver).
type Resolver struct {
	sage SageClient
	repo repository.LmsRepository
	log  *logger.Logger
}

// NewResolver construye el resolver.
func NewResolver(sage SageClient, repo repository.LmsRepository, log *logger.Logger) *Resolver {
	return &Resolver{sage: sage, repo: repo, log: log.Named("resolver")}
}

// ResolveCompany asegura el CompanyID del proveedor. Se resuelve una vez por
// job, antes del fan-out, nunca por alumno.
func (r *Resolver) ResolveCompany(ctx context.Context, creds *entity.ProviderCredentials) (int, error) {
	if creds.CompanyID > 0 {
		return creds.CompanyID, nil
	}
	updater := ProviderCompanyUpdaterFunc(func(ctx context.Context, providerID, companyID int) error {
		return r.repo.PersistCompanyID(ctx, providerID, companyID)
	})
	companyID, err := r.sage.EnsureCompanyID(ctx, creds, updater)
	if err != nil {
		return 0, fmt.Errorf("resolver company (provider %d): %w", creds.ProviderID, err)
	}
	r.log.Info().
		Int("provider_id", creds.ProviderID).
		Int("company_id", companyID).
		Msg("company resuelta en sage")
	return companyID, nil
}

// ResolveProduct asegura el id de producto Sage del curso y lo persiste al
// LMS la primera vez. Muta course.SageProductID una sola vez por run.
func (r *Resolver) ResolveProduct(ctx context.Context, creds *entity.ProviderCredentials, course *entity.Course) (int, error) {
	if course.SageProductID > 0 {
		return course.SageProductID, nil
	}
	if cached, err := r.repo.GetCachedProductID(ctx, course.ID); err != nil {
		return 0, fmt.Errorf("leer product id cacheado (curso %d): %w", course.ID, err)
	} else if cached > 0 {
		course.SageProductID = cached
		return cached, nil
	}

	productID, err := r.sage.GetOrCreateProduct(ctx, creds, course)
	if err != nil {
		return 0, fmt.Errorf("resolver producto (curso %d): %w", course.ID, err)
	}
	if err := r.repo.PersistProductID(ctx, course.ID, productID); err != nil {
		return 0, fmt.Errorf("persistir product id (curso %d): %w", course.ID, err)
	}
	course.SageProductID = productID
	r.log.Info().
		Int("course_id", course.ID).
		Int("product_id", productID).
		Msg("producto resuelto en sage")
	return productID, nil
}

// ResolveCustomer asegura el id de cliente Sage del alumno. Revisa primero la
// copia en memoria y luego el cache del LMS; solo si ambos están en 0 llama a
// Sage y persiste el id junto al código de respuesta del API.
func (r *Resolver) ResolveCustomer(ctx context.Context, creds *entity.ProviderCredentials, learner *entity.Learner, course *entity.Course) (int, error) {
	if learner.SageCustomerID > 0 {
		return learner.SageCustomerID, nil
	}
	if cached, err := r.repo.GetCachedCustomerID(ctx, learner.ID); err != nil {
		return 0, fmt.Errorf("leer customer id cacheado (alumno %d): %w", learner.ID, err)
	} else if cached > 0 {
		learner.SageCustomerID = cached
		return cached, nil
	}

	res, err := r.sage.GetOrCreateCustomer(ctx, creds, learner, course)
	if err != nil {
		return 0, fmt.Errorf("resolver cliente (alumno %d): %w", learner.ID, err)
	}
	if err := r.repo.PersistCustomerID(ctx, learner.ID, course.ID, res.ID, res.ResponseCode); err != nil {
		return 0, fmt.Errorf("persistir customer id (alumno %d): %w", learner.ID, err)
	}
	learner.SageCustomerID = res.ID
	r.log.Info().
		Int("learner_id", learner.ID).
		Int("customer_id", res.ID).
		Msg("cliente resuelto en sage")
	return res.ID, nil
}
