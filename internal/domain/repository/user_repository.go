package repository

import (
	"context"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// UserRepository usuarios del servicio. FindByUsername devuelve (nil, nil)
// si el usuario no existe.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}
