package repository

import (
	"context"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// LmsRepository acceso al sistema de registro del LMS: cursos, alumnos y los
// ids de Sage cacheados. Las lecturas "Get" devuelven (nil, nil) si el recurso
// no existe; el caller decide si eso es terminal o no.
type LmsRepository interface {
	GetCourse(ctx context.Context, courseID int) (*entity.Course, error)
	GetLearnersForCourse(ctx context.Context, courseID int) ([]*entity.Learner, error)

	// Cache de ids de Sage. 0 = sin resolver.
	GetCachedCustomerID(ctx context.Context, learnerID int) (int, error)
	PersistCustomerID(ctx context.Context, learnerID, courseID, customerID, responseCode int) error
	GetCachedProductID(ctx context.Context, courseID int) (int, error)
	PersistProductID(ctx context.Context, courseID, productID int) error

	GetCredentials(ctx context.Context, providerID int) (*entity.ProviderCredentials, error)
	PersistCompanyID(ctx context.Context, providerID, companyID int) error

	GetProviderInfo(ctx context.Context, providerID int) (*entity.ProviderInfo, error)

	// ResolveCourseAndLearner mapea la referencia de un documento de Sage de
	// vuelta a su curso y alumno. (nil, nil) si no resuelve.
	ResolveCourseAndLearner(ctx context.Context, providerID int, documentReference string) (*entity.CourseResolution, error)
}
