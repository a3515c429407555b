package sage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Estructuras de respuesta ──────────────────────────────────────────────────
//
// Cada operación tiene su struct tipado: el JSON se parsea una sola vez aquí
// y ningún mapa sin tipar entra a la lógica de negocio.

type idResult struct {
	ID   int    `json:"ID"`
	Name string `json:"Name,omitempty"`
}

type companyGetResponse struct {
	Results []idResult `json:"Results"`
}

type itemGetResponse struct {
	Results []itemResult `json:"Results"`
}

type itemResult struct {
	ID          int             `json:"ID"`
	Code        string          `json:"Code"`
	Description string          `json:"Description"`
	SalesPrice  decimal.Decimal `json:"PriceExclusive"`
}

type itemSaveResponse struct {
	ID int `json:"ID"`
}

type customerSaveResponse struct {
	ID int `json:"ID"`
}

type taxInvoiceGetResponse struct {
	Results []taxInvoiceResult `json:"Results"`
}

type taxInvoiceResult struct {
	ID         int             `json:"ID"`
	CustomerID int             `json:"CustomerId"`
	Reference  string          `json:"Reference"`
	Total      decimal.Decimal `json:"Total"`
	AmountDue  decimal.Decimal `json:"AmountDue"`
}

type taxInvoiceSaveResponse struct {
	ID          int    `json:"ID"`
	Message     string `json:"Message"`
	MessageType string `json:"MessageType"`
}

type customerStatementResponse struct {
	TotalResults int                      `json:"TotalResults"`
	Results      []customerStatementEntry `json:"Results"`
}

type customerStatementEntry struct {
	CustomerID     int             `json:"CustomerId"`
	CustomerName   string          `json:"CustomerName"`
	DocumentNumber string          `json:"DocumentNumber"`
	Date           string          `json:"Date"`    // yyyy-MM-dd
	DueDate        string          `json:"DueDate"` // yyyy-MM-dd, puede venir vacío
	Comment        string          `json:"Comment"`
	Total          decimal.Decimal `json:"Total"`
	AmountPaid     decimal.Decimal `json:"AmountPaid"`
	Balance        decimal.Decimal `json:"Balance"`
}

// ── Payloads de request ───────────────────────────────────────────────────────

type itemPayload struct {
	Code        string          `json:"Code"`
	Description string          `json:"Description"`
	Active      bool            `json:"Active"`
	Physical    bool            `json:"Physical"`
	PriceExcl   decimal.Decimal `json:"PriceExclusive"`
}

type customerPayload struct {
	Name            string          `json:"Name"`
	Email           string          `json:"Email"`
	Telephone       string          `json:"Telephone"`
	Mobile          string          `json:"Mobile"`
	Active          bool            `json:"Active"`
	PhysicalAddress addressPayload  `json:"DeliveryAddress"`
	PostalAddress   addressPayload  `json:"PostalAddress"`
}

type addressPayload struct {
	Line1      string `json:"Address1"`
	Line2      string `json:"Address2"`
	Line3      string `json:"Address3"`
	PostalCode string `json:"PostalCode"`
}

type taxInvoicePayload struct {
	CustomerID    int                 `json:"CustomerId"`
	DocumentDate  string              `json:"Date"`
	Reference     string              `json:"Reference"`
	Message       string              `json:"Message,omitempty"`
	Lines         []taxInvoiceLinePay `json:"Lines"`
}

type taxInvoiceLinePay struct {
	SelectionID    int             `json:"SelectionId"` // id del item en Sage
	Description    string          `json:"Description"`
	Quantity       decimal.Decimal `json:"Quantity"`
	UnitPriceExcl  decimal.Decimal `json:"UnitPriceExclusive"`
}

type statementRequestBody struct {
	FromCustomerID int    `json:"FromCustomerId,omitempty"`
	ToDate         string `json:"ToDate,omitempty"`
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// Sage entrega fechas ISO, a veces con hora.
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
