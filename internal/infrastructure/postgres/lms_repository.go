package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
)

var _ repository.LmsRepository = (*LmsRepo)(nil)

// LmsRepo implementación del puerto LmsRepository sobre PostgreSQL (usable con pool o tx).
//
// Los ids de Sage cacheados viven en tablas de vínculo separadas
// (learner_sage_links, provider_sage_credentials, courses.sage_product_id):
// el motor de sincronización solo escribe ahí, nunca toca los datos maestros
// del LMS.
type LmsRepo struct {
	q Querier
}

// NewLmsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLmsRepository(q Querier) *LmsRepo {
	return &LmsRepo{q: q}
}

// GetCourse obtiene un curso por ID. (nil, nil) si no existe.
func (r *LmsRepo) GetCourse(ctx context.Context, courseID int) (*entity.Course, error) {
	query := `
		SELECT id, provider_id, title, project_reference, course_value, sage_product_id
		FROM courses WHERE id = $1`
	var c entity.Course
	err := r.q.QueryRow(ctx, query, courseID).Scan(
		&c.ID, &c.ProviderID, &c.Title, &c.ProjectReference, &c.Value, &c.SageProductID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}

// GetLearnersForCourse lista los alumnos inscritos en un curso con su
// SageCustomerID cacheado (0 si nunca se resolvió).
func (r *LmsRepo) GetLearnersForCourse(ctx context.Context, courseID int) ([]*entity.Learner, error) {
	query := `
		SELECT l.id, l.person_id, COALESCE(ls.sage_customer_id, 0),
		       l.full_name, l.phone, l.mobile, l.email,
		       l.physical_address1, l.physical_address2, l.physical_address3, l.physical_postal_code,
		       l.postal_address1, l.postal_address2, l.postal_address3, l.postal_address_code
		FROM learners l
		JOIN course_learners cl ON cl.learner_id = l.id
		LEFT JOIN learner_sage_links ls ON ls.learner_id = l.id
		WHERE cl.course_id = $1
		ORDER BY l.id`
	rows, err := r.q.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()
	var list []*entity.Learner
	for rows.Next() {
		var l entity.Learner
		if err := rows.Scan(&l.ID, &l.PersonID, &l.SageCustomerID,
			&l.FullName, &l.Phone, &l.Mobile, &l.Email,
			&l.PhysicalAddress1, &l.PhysicalAddress2, &l.PhysicalAddress3, &l.PhysicalPostalCode,
			&l.PostalAddress1, &l.PostalAddress2, &l.PostalAddress3, &l.PostalAddressCode); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetCachedCustomerID devuelve el id de cliente Sage cacheado para un alumno.
// 0 = sin resolver (fila ausente o id en 0, da lo mismo para el resolver).
func (r *LmsRepo) GetCachedCustomerID(ctx context.Context, learnerID int) (int, error) {
	var id int
	err := r.q.QueryRow(ctx,
		`SELECT sage_customer_id FROM learner_sage_links WHERE learner_id = $1`,
		learnerID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get cached customer id: %w", err)
	}
	return id, nil
}

// PersistCustomerID guarda el id de cliente Sage resuelto para un alumno,
// junto con el código de respuesta del API (auditoría del get-or-create).
func (r *LmsRepo) PersistCustomerID(ctx context.Context, learnerID, courseID, customerID, responseCode int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO learner_sage_links (learner_id, course_id, sage_customer_id, api_response_code, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id) DO UPDATE
		SET course_id = EXCLUDED.course_id,
		    sage_customer_id = EXCLUDED.sage_customer_id,
		    api_response_code = EXCLUDED.api_response_code,
		    updated_at = EXCLUDED.updated_at`,
		learnerID, courseID, customerID, responseCode, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("persist customer id: %w", err)
	}
	return nil
}

// GetCachedProductID devuelve el id de producto Sage cacheado para un curso. 0 = sin resolver.
func (r *LmsRepo) GetCachedProductID(ctx context.Context, courseID int) (int, error) {
	var id int
	err := r.q.QueryRow(ctx,
		`SELECT sage_product_id FROM courses WHERE id = $1`,
		courseID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get cached product id: %w", err)
	}
	return id, nil
}

// PersistProductID guarda el id de producto Sage resuelto para un curso.
func (r *LmsRepo) PersistProductID(ctx context.Context, courseID, productID int) error {
	_, err := r.q.Exec(ctx,
		`UPDATE courses SET sage_product_id = $2 WHERE id = $1`,
		courseID, productID,
	)
	if err != nil {
		return fmt.Errorf("persist product id: %w", err)
	}
	return nil
}

// GetCredentials obtiene las credenciales de Sage de un proveedor con su
// CompanyID cacheado. (nil, nil) si el proveedor no tiene credenciales.
func (r *LmsRepo) GetCredentials(ctx context.Context, providerID int) (*entity.ProviderCredentials, error) {
	query := `
		SELECT provider_id, api_key, username, password, company_id
		FROM provider_sage_credentials WHERE provider_id = $1`
	var c entity.ProviderCredentials
	err := r.q.QueryRow(ctx, query, providerID).Scan(
		&c.ProviderID, &c.APIKey, &c.Username, &c.Password, &c.CompanyID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &c, nil
}

// PersistCompanyID guarda el CompanyID resuelto de un proveedor.
func (r *LmsRepo) PersistCompanyID(ctx context.Context, providerID, companyID int) error {
	_, err := r.q.Exec(ctx,
		`UPDATE provider_sage_credentials SET company_id = $2 WHERE provider_id = $1`,
		providerID, companyID,
	)
	if err != nil {
		return fmt.Errorf("persist company id: %w", err)
	}
	return nil
}

// GetProviderInfo obtiene los datos de membrete de un proveedor. (nil, nil) si no existe.
func (r *LmsRepo) GetProviderInfo(ctx context.Context, providerID int) (*entity.ProviderInfo, error) {
	query := `
		SELECT id, name, address, phone, email
		FROM providers WHERE id = $1`
	var p entity.ProviderInfo
	err := r.q.QueryRow(ctx, query, providerID).Scan(
		&p.ID, &p.Name, &p.Address, &p.Phone, &p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider info: %w", err)
	}
	return &p, nil
}

// ResolveCourseAndLearner mapea la referencia de un documento de Sage de
// vuelta a su curso (por project_reference). El alumno solo se resuelve si el
// curso tiene exactamente un inscrito; con varios la referencia es ambigua y
// LearnerID queda en 0.
func (r *LmsRepo) ResolveCourseAndLearner(ctx context.Context, providerID int, documentReference string) (*entity.CourseResolution, error) {
	query := `
		SELECT id, title, sage_product_id, project_reference
		FROM courses WHERE provider_id = $1 AND project_reference = $2`
	var res entity.CourseResolution
	err := r.q.QueryRow(ctx, query, providerID, documentReference).Scan(
		&res.CourseID, &res.CourseTitle, &res.SageProductID, &res.Reference,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve course by reference: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT learner_id FROM course_learners WHERE course_id = $1 LIMIT 2`,
		res.CourseID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve learner by course: %w", err)
	}
	defer rows.Close()
	var learnerIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan learner id: %w", err)
		}
		learnerIDs = append(learnerIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(learnerIDs) == 1 {
		res.LearnerID = learnerIDs[0]
	}
	return &res, nil
}
