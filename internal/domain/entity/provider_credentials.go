package entity

// ProviderCredentials credenciales del API de Sage para un proveedor del LMS,
// más su CompanyID en el ledger.
//
// CompanyID en 0 significa "sin resolver". El resolver lo escribe exactamente
// una vez, antes del fan-out del lote; a partir de ahí nadie más lo escribe,
// por eso el campo no necesita lock (orden resolve-before-fan-out).
type ProviderCredentials struct {
	ProviderID int
	APIKey     string
	Username   string
	Password   string
	CompanyID  int
}
