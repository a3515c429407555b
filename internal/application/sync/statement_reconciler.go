package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/internal/domain/repository"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// StatementReconciler pasada batch independiente: agrega el estado de cuenta
// de cada cliente, detecta por hash qué headers cambiaron y por clave qué
// líneas son nuevas, y persiste SOLO el delta. Nunca borra headers.
//
// Debe correr en serie consigo mismo (un solo runner): dos pasadas solapadas
// sobre el mismo cliente no están soportadas. El queue dedicado de
// reconciliación garantiza la disciplina.
type StatementReconciler struct {
	sage       SageClient
	lms        repository.LmsRepository
	statements repository.StatementRepository
	resolver   *Resolver
	pageSize   int
	now        func() time.Time
	log        *logger.Logger
}

// NewStatementReconciler construye el reconciler. pageSize <= 0 usa 200.
func NewStatementReconciler(
	sage SageClient,
	lms repository.LmsRepository,
	statements repository.StatementRepository,
	resolver *Resolver,
	pageSize int,
	log *logger.Logger,
) *StatementReconciler {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &StatementReconciler{
		sage:       sage,
		lms:        lms,
		statements: statements,
		resolver:   resolver,
		pageSize:   pageSize,
		now:        time.Now,
		log:        log.Named("statement_reconciler"),
	}
}

// ReconcileStatements ejecuta una pasada completa para un proveedor.
func (r *StatementReconciler) ReconcileStatements(ctx context.Context, providerID int) error {
	creds, err := r.lms.GetCredentials(ctx, providerID)
	if err != nil {
		return fmt.Errorf("cargar credenciales del proveedor %d: %w", providerID, err)
	}
	if creds == nil {
		return fmt.Errorf("proveedor %d sin credenciales de sage", providerID)
	}
	if _, err := r.resolver.ResolveCompany(ctx, creds); err != nil {
		return err
	}

	// Un solo round-trip para headers y claves existentes: las decisiones de
	// existencia se toman en memoria, no con un query por fila.
	headerMap, err := r.statements.GetExistingHeaderMap(ctx)
	if err != nil {
		return fmt.Errorf("cargar headers existentes: %w", err)
	}
	existingKeys, err := r.statements.GetExistingLineKeys(ctx)
	if err != nil {
		return fmt.Errorf("cargar claves de líneas existentes: %w", err)
	}

	entries, err := r.fetchAllEntries(ctx, creds)
	if err != nil {
		return err
	}

	byCustomer := make(map[int][]entity.StatementEntry)
	customerNames := make(map[int]string)
	skipped := 0
	for _, e := range entries {
		// Entrada inválida: se descarta cerrado (skip) antes de que pueda
		// contaminar agregados o claves.
		if e.CustomerID <= 0 || e.DocumentNumber == "" || e.DocumentDate.IsZero() {
			skipped++
			r.log.Warn().
				Int("customer_id", e.CustomerID).
				Str("document", e.DocumentNumber).
				Msg("línea de estado de cuenta inválida, se omite")
			continue
		}
		byCustomer[e.CustomerID] = append(byCustomer[e.CustomerID], e)
		if e.CustomerName != "" {
			customerNames[e.CustomerID] = e.CustomerName
		}
	}

	now := r.now()
	var (
		newHeaders []entity.StatementHeaderRow
		newLines   []entity.StatementLineRow
		updates    = make(map[int]entity.StatementHeaderAggregate)
		unchanged  = 0
	)

	// Orden estable por cliente: logs y bulk-inserts deterministas.
	customerIDs := make([]int, 0, len(byCustomer))
	for id := range byCustomer {
		customerIDs = append(customerIDs, id)
	}
	sort.Ints(customerIDs)

	for _, customerID := range customerIDs {
		lines := byCustomer[customerID]
		agg := AggregateStatement(lines, now)
		agg.RowHash = HashAggregate(agg)

		if ref, ok := headerMap[customerID]; !ok {
			newHeaders = append(newHeaders, entity.StatementHeaderRow{
				ProviderID:   providerID,
				CustomerID:   customerID,
				CustomerName: customerNames[customerID],
				Aggregate:    agg,
				CreatedAt:    now,
			})
		} else if ref.RowHash != agg.RowHash {
			updates[ref.HeaderID] = agg
		} else {
			unchanged++
		}

		for _, line := range lines {
			key := LineKey(customerID, line.DocumentNumber, line.DocumentDate)
			if _, exists := existingKeys[key]; exists {
				continue
			}
			existingKeys[key] = struct{}{} // evita duplicados dentro de la misma pasada
			newLines = append(newLines, entity.StatementLineRow{
				ProviderID:     providerID,
				CustomerID:     customerID,
				DocumentNumber: line.DocumentNumber,
				DocumentDate:   line.DocumentDate,
				DueDate:        line.DueDate,
				Description:    line.Description,
				Total:          line.Total,
				Paid:           line.Paid,
				Outstanding:    line.Outstanding,
				DedupKey:       key,
			})
		}
	}

	if len(newHeaders) > 0 {
		if err := r.statements.BulkInsertHeaders(ctx, newHeaders); err != nil {
			return fmt.Errorf("insertar headers nuevos: %w", err)
		}
	}
	if len(newLines) > 0 {
		if err := r.statements.BulkInsertLines(ctx, newLines); err != nil {
			return fmt.Errorf("insertar líneas nuevas: %w", err)
		}
	}
	for headerID, agg := range updates {
		if err := r.statements.UpdateHeaderAggregate(ctx, headerID, agg); err != nil {
			return fmt.Errorf("actualizar header %d: %w", headerID, err)
		}
	}

	r.log.Info().
		Int("provider_id", providerID).
		Int("customers", len(byCustomer)).
		Int("headers_created", len(newHeaders)).
		Int("headers_updated", len(updates)).
		Int("headers_unchanged", unchanged).
		Int("lines_inserted", len(newLines)).
		Int("entries_skipped", skipped).
		Msg("reconciliación de estados de cuenta completada")
	return nil
}

// fetchAllEntries recorre todas las páginas de CustomerStatement/Get.
func (r *StatementReconciler) fetchAllEntries(ctx context.Context, creds *entity.ProviderCredentials) ([]entity.StatementEntry, error) {
	var all []entity.StatementEntry
	for page := 1; ; page++ {
		entries, hasMore, err := r.sage.GetCustomerStatements(ctx, creds, page, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("consultar estados de cuenta (página %d): %w", page, err)
		}
		all = append(all, entries...)
		if !hasMore {
			return all, nil
		}
	}
}

// AggregateStatement calcula el resumen de un cliente: total adeudado, total
// pagado y los buckets de antigüedad según días vencidos al corte `now`:
// 0–30, 31–60, 61–90 y 91+ días. Solo el saldo pendiente entra en buckets.
func AggregateStatement(lines []entity.StatementEntry, now time.Time) entity.StatementHeaderAggregate {
	agg := entity.StatementHeaderAggregate{
		TotalDue:    decimal.Zero,
		TotalPaid:   decimal.Zero,
		Days30:      decimal.Zero,
		Days60:      decimal.Zero,
		Days90:      decimal.Zero,
		Days120Plus: decimal.Zero,
	}
	for _, line := range lines {
		agg.TotalPaid = agg.TotalPaid.Add(line.Paid)
		if !line.Outstanding.IsPositive() {
			continue
		}
		agg.TotalDue = agg.TotalDue.Add(line.Outstanding)

		due := line.DueDate
		if due.IsZero() {
			due = line.DocumentDate
		}
		days := int(now.Sub(due).Hours() / 24)
		switch {
		case days <= 30:
			agg.Days30 = agg.Days30.Add(line.Outstanding)
		case days <= 60:
			agg.Days60 = agg.Days60.Add(line.Outstanding)
		case days <= 90:
			agg.Days90 = agg.Days90.Add(line.Outstanding)
		default:
			agg.Days120Plus = agg.Days120Plus.Add(line.Outstanding)
		}
	}
	return agg
}

// HashAggregate hash de contenido estable sobre los seis campos del agregado.
// Mismo agregado → mismo hash siempre; cambiar un solo bucket cambia el hash.
func HashAggregate(agg entity.StatementHeaderAggregate) string {
	payload := strings.Join([]string{
		agg.TotalDue.StringFixed(2),
		agg.TotalPaid.StringFixed(2),
		agg.Days30.StringFixed(2),
		agg.Days60.StringFixed(2),
		agg.Days90.StringFixed(2),
		agg.Days120Plus.StringFixed(2),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// LineKey clave de dedup de una línea: cliente + documento (normalizado a
// mayúsculas) + fecha del documento.
func LineKey(customerID int, documentNumber string, documentDate time.Time) string {
	return fmt.Sprintf("%d|%s|%s",
		customerID,
		strings.ToUpper(strings.TrimSpace(documentNumber)),
		documentDate.Format("2006-01-02"),
	)
}
