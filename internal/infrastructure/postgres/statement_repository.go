package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
)

var _ repository.StatementRepository = (*StatementRepo)(nil)

// StatementRepo implementación del puerto StatementRepository sobre PostgreSQL.
//
// Las escrituras masivas van por COPY (CopyFrom), no por INSERT fila a fila:
// una pasada de reconciliación puede traer miles de líneas nuevas.
type StatementRepo struct {
	q Querier
}

// NewStatementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStatementRepository(q Querier) *StatementRepo {
	return &StatementRepo{q: q}
}

// GetExistingHeaderMap carga todos los headers existentes indexados por
// cliente, con el hash con el que se escribieron por última vez. Se llama una
// vez por pasada; el reconciler compara hashes en memoria.
func (r *StatementRepo) GetExistingHeaderMap(ctx context.Context) (map[int]entity.StatementHeaderRef, error) {
	rows, err := r.q.Query(ctx,
		`SELECT customer_id, id, row_hash FROM statement_headers`,
	)
	if err != nil {
		return nil, fmt.Errorf("load header map: %w", err)
	}
	defer rows.Close()
	m := make(map[int]entity.StatementHeaderRef)
	for rows.Next() {
		var customerID int
		var ref entity.StatementHeaderRef
		if err := rows.Scan(&customerID, &ref.HeaderID, &ref.RowHash); err != nil {
			return nil, fmt.Errorf("scan header ref: %w", err)
		}
		m[customerID] = ref
	}
	return m, rows.Err()
}

// GetExistingLineKeys carga el conjunto de claves de dedup de todas las líneas
// persistidas. Una clave presente significa "esta línea ya existe, no insertar".
func (r *StatementRepo) GetExistingLineKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.q.Query(ctx, `SELECT dedup_key FROM statement_lines`)
	if err != nil {
		return nil, fmt.Errorf("load line keys: %w", err)
	}
	defer rows.Close()
	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan line key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// BulkInsertHeaders inserta headers nuevos vía COPY. El id es serial; COPY
// respeta el default de la columna al omitirla.
func (r *StatementRepo) BulkInsertHeaders(ctx context.Context, headerRows []entity.StatementHeaderRow) error {
	if len(headerRows) == 0 {
		return nil
	}
	columns := []string{
		"provider_id", "customer_id", "customer_name",
		"total_due", "total_paid", "days_30", "days_60", "days_90", "days_120_plus",
		"row_hash", "created_at", "updated_at",
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"statement_headers"},
		columns,
		pgx.CopyFromSlice(len(headerRows), func(i int) ([]any, error) {
			h := headerRows[i]
			return []any{
				h.ProviderID, h.CustomerID, h.CustomerName,
				h.Aggregate.TotalDue, h.Aggregate.TotalPaid,
				h.Aggregate.Days30, h.Aggregate.Days60, h.Aggregate.Days90, h.Aggregate.Days120Plus,
				h.Aggregate.RowHash, h.CreatedAt, h.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("copy headers: %w", err)
	}
	return nil
}

// BulkInsertLines inserta líneas nuevas vía COPY. Las claves de dedup vienen
// ya filtradas por el reconciler; un 23505 aquí indica una pasada concurrente.
func (r *StatementRepo) BulkInsertLines(ctx context.Context, lineRows []entity.StatementLineRow) error {
	if len(lineRows) == 0 {
		return nil
	}
	columns := []string{
		"provider_id", "customer_id", "document_number", "document_date", "due_date",
		"description", "total", "paid", "outstanding", "dedup_key",
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"statement_lines"},
		columns,
		pgx.CopyFromSlice(len(lineRows), func(i int) ([]any, error) {
			l := lineRows[i]
			return []any{
				l.ProviderID, l.CustomerID, l.DocumentNumber, l.DocumentDate, l.DueDate,
				l.Description, l.Total, l.Paid, l.Outstanding, l.DedupKey,
			}, nil
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("copy lines: %w", err)
	}
	return nil
}

// UpdateHeaderAggregate reescribe los agregados y el hash de un header cuyo
// contenido cambió. Solo se llama cuando el hash nuevo difiere del almacenado.
func (r *StatementRepo) UpdateHeaderAggregate(ctx context.Context, headerID int, agg entity.StatementHeaderAggregate) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE statement_headers
		SET total_due = $2, total_paid = $3,
		    days_30 = $4, days_60 = $5, days_90 = $6, days_120_plus = $7,
		    row_hash = $8, updated_at = $9
		WHERE id = $1`,
		headerID, agg.TotalDue, agg.TotalPaid,
		agg.Days30, agg.Days60, agg.Days90, agg.Days120Plus,
		agg.RowHash, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update header aggregate: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListProviderStatements lista los estados de cuenta de un proveedor, con
// filtro opcional por nombre de cliente (ILIKE).
func (r *StatementRepo) ListProviderStatements(ctx context.Context, providerID int, search string) ([]entity.StatementInfo, error) {
	query := `
		SELECT id, provider_id, customer_id, customer_name, total_due, total_paid, COALESCE(pdf_path, ''), updated_at
		FROM statement_headers
		WHERE provider_id = $1 AND ($2 = '' OR customer_name ILIKE '%' || $2 || '%')
		ORDER BY customer_name`
	rows, err := r.q.Query(ctx, query, providerID, search)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()
	var list []entity.StatementInfo
	for rows.Next() {
		var s entity.StatementInfo
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.CustomerID, &s.CustomerName,
			&s.TotalDue, &s.TotalPaid, &s.PDFPath, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetStatementDetail carga header, agregados, membrete del proveedor y líneas
// de un estado de cuenta. (nil, nil) si el header no existe o no pertenece al
// proveedor.
func (r *StatementRepo) GetStatementDetail(ctx context.Context, providerID, statementID int) (*entity.StatementDetail, error) {
	query := `
		SELECT h.id, h.provider_id, h.customer_id, h.customer_name,
		       h.total_due, h.total_paid, h.days_30, h.days_60, h.days_90, h.days_120_plus,
		       h.row_hash, COALESCE(h.pdf_path, ''), h.updated_at,
		       p.id, p.name, p.address, p.phone, p.email
		FROM statement_headers h
		JOIN providers p ON p.id = h.provider_id
		WHERE h.id = $1 AND h.provider_id = $2`
	var d entity.StatementDetail
	err := r.q.QueryRow(ctx, query, statementID, providerID).Scan(
		&d.Header.ID, &d.Header.ProviderID, &d.Header.CustomerID, &d.Header.CustomerName,
		&d.Aggregate.TotalDue, &d.Aggregate.TotalPaid,
		&d.Aggregate.Days30, &d.Aggregate.Days60, &d.Aggregate.Days90, &d.Aggregate.Days120Plus,
		&d.Aggregate.RowHash, &d.Header.PDFPath, &d.Header.UpdatedAt,
		&d.Provider.ID, &d.Provider.Name, &d.Provider.Address, &d.Provider.Phone, &d.Provider.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get statement detail: %w", err)
	}
	d.Header.TotalDue = d.Aggregate.TotalDue
	d.Header.TotalPaid = d.Aggregate.TotalPaid

	lineQuery := `
		SELECT provider_id, customer_id, document_number, document_date, due_date,
		       description, total, paid, outstanding, dedup_key
		FROM statement_lines
		WHERE provider_id = $1 AND customer_id = $2
		ORDER BY document_date, document_number`
	rows, err := r.q.Query(ctx, lineQuery, providerID, d.Header.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list statement lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.StatementLineRow
		if err := rows.Scan(&l.ProviderID, &l.CustomerID, &l.DocumentNumber, &l.DocumentDate, &l.DueDate,
			&l.Description, &l.Total, &l.Paid, &l.Outstanding, &l.DedupKey); err != nil {
			return nil, fmt.Errorf("scan statement line: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	return &d, rows.Err()
}

// SaveStatementPDFPath persiste la ruta del PDF ya renderizado de un estado de cuenta.
func (r *StatementRepo) SaveStatementPDFPath(ctx context.Context, statementID int, path string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE statement_headers SET pdf_path = $2 WHERE id = $1`,
		statementID, path,
	)
	if err != nil {
		return fmt.Errorf("save pdf path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetStatementPDFPath devuelve la ruta del PDF de un estado de cuenta
// ("" si todavía no se renderizó). domain.ErrNotFound si el header no existe.
func (r *StatementRepo) GetStatementPDFPath(ctx context.Context, statementID int) (string, error) {
	var path string
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(pdf_path, '') FROM statement_headers WHERE id = $1`,
		statementID,
	).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get pdf path: %w", err)
	}
	return path, nil
}
