// Package sage implementa el cliente HTTP tipado del API de Sage Accounting.
// Autenticación por petición: header "apikey" + Basic auth con las
// credenciales del proveedor. La base URL viene de configuración y su
// ausencia es fatal al construir el cliente, no un error por llamada.
package sage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appsync "github.com/jhoicas/sage-sync-api/internal/application/sync"
	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/pkg/config"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

var _ appsync.SageClient = (*Client)(nil)

// Client cliente concreto del API de Sage.
type Client struct {
	http    *http.Client
	baseURL string
	log     *logger.Logger
}

// NewClient construye el cliente. Falla si la base URL no está configurada.
func NewClient(cfg config.SageConfig, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sage: base URL no configurada")
	}
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log.Named("sage_client"),
	}, nil
}

// EnsureCompanyID resuelve el CompanyID: cache primero, luego Company/Get.
// Al descubrir uno nuevo lo cachea en creds y lo persiste vía updater.
func (c *Client) EnsureCompanyID(ctx context.Context, creds *entity.ProviderCredentials, updater appsync.ProviderCompanyUpdater) (int, error) {
	if creds.CompanyID > 0 {
		return creds.CompanyID, nil
	}

	var resp companyGetResponse
	if err := c.do(ctx, http.MethodGet, "Company/Get", creds, nil, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == 0 {
		return 0, domain.ErrCompanyNotFound
	}

	companyID := resp.Results[0].ID
	creds.CompanyID = companyID
	if updater != nil && creds.ProviderID > 0 {
		if err := updater.UpdateCompanyID(ctx, creds.ProviderID, companyID); err != nil {
			return 0, fmt.Errorf("persistir company id: %w", err)
		}
	}
	return companyID, nil
}

// GetOrCreateProduct busca el item por el código de referencia del curso;
// si no existe lo crea con Item/Save.
func (c *Client) GetOrCreateProduct(ctx context.Context, creds *entity.ProviderCredentials, course *entity.Course) (int, error) {
	companyID, err := c.EnsureCompanyID(ctx, creds, nil)
	if err != nil {
		return 0, err
	}

	filter := fmt.Sprintf("Code eq '%s'", escapeFilter(course.ProjectReference))
	path := fmt.Sprintf("Item/Get?CompanyID=%d&filter=%s", companyID, url.QueryEscape(filter))
	var found itemGetResponse
	if err := c.do(ctx, http.MethodGet, path, creds, nil, &found); err != nil {
		return 0, err
	}
	if len(found.Results) > 0 && found.Results[0].ID > 0 {
		return found.Results[0].ID, nil
	}

	payload := itemPayload{
		Code:        course.ProjectReference,
		Description: course.Title,
		Active:      true,
		Physical:    false, // los cursos son servicio, no inventario
		PriceExcl:   course.Value,
	}
	savePath := fmt.Sprintf("Item/Save?CompanyID=%d", companyID)
	var saved itemSaveResponse
	if err := c.do(ctx, http.MethodPost, savePath, creds, payload, &saved); err != nil {
		return 0, err
	}
	if saved.ID == 0 {
		return 0, fmt.Errorf("sage: Item/Save no devolvió ID para %q", course.ProjectReference)
	}
	return saved.ID, nil
}

// GetOrCreateCustomer crea (o actualiza) el cliente del alumno en Sage.
// Sage rechaza direcciones/teléfonos vacíos, por eso el relleno con "N/A".
func (c *Client) GetOrCreateCustomer(ctx context.Context, creds *entity.ProviderCredentials, learner *entity.Learner, course *entity.Course) (appsync.CustomerResult, error) {
	companyID, err := c.EnsureCompanyID(ctx, creds, nil)
	if err != nil {
		return appsync.CustomerResult{}, err
	}

	name := strings.TrimSpace(learner.FullName)
	if name == "" {
		name = "Unknown"
	}
	payload := customerPayload{
		Name:      name,
		Email:     orNA(learner.Email),
		Telephone: orNA(learner.Phone),
		Mobile:    orNA(learner.Mobile),
		Active:    true,
		PhysicalAddress: addressPayload{
			Line1:      orNA(learner.PhysicalAddress1),
			Line2:      orNA(learner.PhysicalAddress2),
			Line3:      orNA(learner.PhysicalAddress3),
			PostalCode: orNA(learner.PhysicalPostalCode),
		},
		PostalAddress: addressPayload{
			Line1:      orNA(learner.PostalAddress1),
			Line2:      orNA(learner.PostalAddress2),
			Line3:      orNA(learner.PostalAddress3),
			PostalCode: orNA(learner.PostalAddressCode),
		},
	}

	path := fmt.Sprintf("Customer/Save?CompanyID=%d", companyID)
	var saved customerSaveResponse
	statusCode, err := c.doWithStatus(ctx, http.MethodPost, path, creds, payload, &saved)
	if err != nil {
		return appsync.CustomerResult{}, err
	}
	if saved.ID == 0 {
		return appsync.CustomerResult{}, fmt.Errorf("sage: Customer/Save no devolvió ID para el alumno %d", learner.ID)
	}
	return appsync.CustomerResult{ID: saved.ID, ResponseCode: statusCode}, nil
}

// HasUnpaidInvoice consulta si existe una factura con saldo para
// (cliente, referencia).
func (c *Client) HasUnpaidInvoice(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error) {
	companyID, err := c.EnsureCompanyID(ctx, creds, nil)
	if err != nil {
		return false, err
	}

	filter := fmt.Sprintf("CustomerId eq %d and Reference eq '%s'", customerID, escapeFilter(reference))
	path := fmt.Sprintf("TaxInvoice/Get?includeDetail=false&CompanyID=%d&filter=%s", companyID, url.QueryEscape(filter))
	var resp taxInvoiceGetResponse
	if err := c.do(ctx, http.MethodGet, path, creds, nil, &resp); err != nil {
		return false, err
	}
	for _, inv := range resp.Results {
		if inv.AmountDue.GreaterThan(decimal.Zero) {
			return true, nil
		}
	}
	return false, nil
}

// CreateInvoice crea la factura de una línea (el curso) vía TaxInvoice/Save.
func (c *Client) CreateInvoice(ctx context.Context, creds *entity.ProviderCredentials, req appsync.InvoiceRequest) (*entity.InvoiceResult, error) {
	companyID, err := c.EnsureCompanyID(ctx, creds, nil)
	if err != nil {
		return nil, err
	}

	payload := taxInvoicePayload{
		CustomerID:   req.CustomerID,
		DocumentDate: time.Now().Format("2006-01-02"),
		Reference:    req.Reference,
		Lines: []taxInvoiceLinePay{{
			SelectionID:   req.ProductID,
			Description:   req.Title,
			Quantity:      decimal.NewFromInt(1),
			UnitPriceExcl: req.Value,
		}},
	}

	path := fmt.Sprintf("TaxInvoice/Save?useSystemDocumentNumber=true&CompanyID=%d", companyID)
	var saved taxInvoiceSaveResponse
	if err := c.do(ctx, http.MethodPost, path, creds, payload, &saved); err != nil {
		return nil, err
	}

	messageType := saved.MessageType
	if messageType == "" {
		messageType = entity.MessageTypeInfo
	}
	return &entity.InvoiceResult{
		Success:     saved.ID > 0,
		Message:     saved.Message,
		MessageType: messageType,
	}, nil
}

// GetCustomerStatements trae una página del estado de cuenta de la company.
func (c *Client) GetCustomerStatements(ctx context.Context, creds *entity.ProviderCredentials, page, pageSize int) ([]entity.StatementEntry, bool, error) {
	companyID, err := c.EnsureCompanyID(ctx, creds, nil)
	if err != nil {
		return nil, false, err
	}

	path := fmt.Sprintf("CustomerStatement/Get?page=%d&pageSize=%d&CompanyID=%d", page, pageSize, companyID)
	var resp customerStatementResponse
	if err := c.do(ctx, http.MethodPost, path, creds, statementRequestBody{}, &resp); err != nil {
		return nil, false, err
	}

	entries := make([]entity.StatementEntry, 0, len(resp.Results))
	for _, e := range resp.Results {
		entries = append(entries, entity.StatementEntry{
			CustomerID:     e.CustomerID,
			CustomerName:   e.CustomerName,
			DocumentNumber: e.DocumentNumber,
			DocumentDate:   parseDate(e.Date),
			DueDate:        parseDate(e.DueDate),
			Description:    e.Comment,
			Total:          e.Total,
			Paid:           e.AmountPaid,
			Outstanding:    e.Balance,
		})
	}
	hasMore := page*pageSize < resp.TotalResults
	return entries, hasMore, nil
}

// ── Plumbing HTTP ─────────────────────────────────────────────────────────────

// do ejecuta la petición y decodifica el JSON en out (out puede ser nil).
func (c *Client) do(ctx context.Context, method, relativePath string, creds *entity.ProviderCredentials, body, out interface{}) error {
	_, err := c.doWithStatus(ctx, method, relativePath, creds, body, out)
	return err
}

// doWithStatus igual que do pero devuelve el código HTTP (se persiste junto
// al customer id).
func (c *Client) doWithStatus(ctx context.Context, method, relativePath string, creds *entity.ProviderCredentials, body, out interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("sage: serializar body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+relativePath, reqBody)
	if err != nil {
		return 0, fmt.Errorf("sage: crear request: %w", err)
	}
	if creds.APIKey != "" {
		req.Header.Set("apikey", creds.APIKey)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("sage: timeout o cancelación: %w", ctx.Err())
		}
		return 0, fmt.Errorf("sage: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return resp.StatusCode, fmt.Errorf("sage: leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("sage: %s %s devolvió %d: %s",
			method, relativePath, resp.StatusCode, truncate(string(raw), 512))
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("sage: parsear respuesta de %s: %w", relativePath, err)
		}
	}
	return resp.StatusCode, nil
}

// escapeFilter escapa comillas simples para los segmentos de filtro
// estilo OData (Code eq 'X').
func escapeFilter(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// orNA convierte vacío en "N/A": Sage rechaza direcciones/teléfonos vacíos.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
