package entity

// Tipos de mensaje que Sage adjunta al resultado de guardar una factura.
const (
	MessageTypeInfo = "INFO"
	MessageTypeWarn = "WARN"
)

// InvoiceResult resultado de un intento de creación de factura en Sage.
// No se persiste: solo se clasifica y se loggea.
type InvoiceResult struct {
	Success     bool
	Message     string
	MessageType string // etiqueta de Sage; por defecto INFO
}
