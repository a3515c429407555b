package entity

import "github.com/shopspring/decimal"

// Course curso facturable del LMS con su vínculo a Sage.
// SageProductID en 0 significa "sin resolver": antes del primer uso en Sage
// hay que pasar por el get-or-create del ledger. Una vez resuelto y persistido,
// el id se trata como inmutable durante el resto del job.
type Course struct {
	ID               int
	ProviderID       int
	Title            string
	ProjectReference string // referencia de facturación (proyecto o código del curso)
	Value            decimal.Decimal
	SageProductID    int
}
