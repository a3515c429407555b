package dto

import "time"

// StatementResponse resumen de un estado de cuenta para listados.
type StatementResponse struct {
	ID           int       `json:"id"`
	CustomerID   int       `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	TotalDue     string    `json:"total_due"`
	TotalPaid    string    `json:"total_paid"`
	HasPDF       bool      `json:"has_pdf"`
	UpdatedAt    time.Time `json:"updated_at"`
}
