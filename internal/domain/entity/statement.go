package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementEntry línea cruda del estado de cuenta tal como la devuelve Sage
// (ya parseada a tipos; ningún mapa sin tipar cruza esta frontera).
type StatementEntry struct {
	CustomerID     int
	CustomerName   string
	DocumentNumber string
	DocumentDate   time.Time
	DueDate        time.Time
	Description    string
	Total          decimal.Decimal
	Paid           decimal.Decimal
	Outstanding    decimal.Decimal
}

// StatementHeaderAggregate resumen por cliente: totales y buckets de
// antigüedad (30/60/90/120+ días). RowHash es el hash de contenido sobre los
// seis campos; un hash igual al almacenado significa "sin cambios, no escribir".
type StatementHeaderAggregate struct {
	TotalDue    decimal.Decimal
	TotalPaid   decimal.Decimal
	Days30      decimal.Decimal
	Days60      decimal.Decimal
	Days90      decimal.Decimal
	Days120Plus decimal.Decimal
	RowHash     string
}

// StatementHeaderRef referencia a un header ya persistido: id de fila y el
// hash con el que se escribió por última vez. Se carga una sola vez por pasada
// para evitar consultas de existencia fila a fila.
type StatementHeaderRef struct {
	HeaderID int
	RowHash  string
}

// StatementHeaderRow fila nueva de header para insertar en bloque.
type StatementHeaderRow struct {
	ProviderID   int
	CustomerID   int
	CustomerName string
	Aggregate    StatementHeaderAggregate
	CreatedAt    time.Time
}

// StatementLineRow fila nueva de línea de estado de cuenta.
// DedupKey = customerID|documento|fecha; una línea cuya clave ya existe en
// la DB nunca se vuelve a insertar.
type StatementLineRow struct {
	ProviderID     int
	CustomerID     int
	DocumentNumber string
	DocumentDate   time.Time
	DueDate        time.Time
	Description    string
	Total          decimal.Decimal
	Paid           decimal.Decimal
	Outstanding    decimal.Decimal
	DedupKey       string
}

// StatementInfo resumen de un estado de cuenta para listados.
type StatementInfo struct {
	ID           int
	ProviderID   int
	CustomerID   int
	CustomerName string
	TotalDue     decimal.Decimal
	TotalPaid    decimal.Decimal
	PDFPath      string
	UpdatedAt    time.Time
}

// StatementDetail datos completos para renderizar el PDF de un estado de cuenta.
type StatementDetail struct {
	Provider  ProviderInfo
	Header    StatementInfo
	Aggregate StatementHeaderAggregate
	Lines     []StatementLineRow
}

// ProviderInfo datos de membrete del proveedor para el PDF.
type ProviderInfo struct {
	ID      int
	Name    string
	Address string
	Phone   string
	Email   string
}
