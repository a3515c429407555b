package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrUserNotFound    = errors.New("usuario no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrQueueFull       = errors.New("cola de jobs llena")
	ErrQueueClosed     = errors.New("cola de jobs cerrada")
	ErrCompanyNotFound = errors.New("sage no devolvió company para las credenciales")
)
