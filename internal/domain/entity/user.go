package entity

import "time"

// Roles de los usuarios del servicio.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User usuario del servicio (quien puede disparar sincronizaciones).
type User struct {
	ID           string // uuid
	Username     string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
