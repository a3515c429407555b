package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/sage-sync-api/internal/application/dto"
	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// fakeUserRepo repositorio en memoria indexado por username.
type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	if _, ok := f.users[user.Username]; ok {
		return domain.ErrDuplicate
	}
	f.users[user.Username] = user
	return nil
}

func testJWTCfg() JWTConfig {
	return JWTConfig{Secret: "test-secret", ExpMinutes: 60, Issuer: "sage-sync-test"}
}

func TestRegisterUser_HasheaPasswordYAsignaRolPorDefecto(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUseCase(repo, testJWTCfg())

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "ana",
		Password: "secreto123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "ana", out.Username)
	assert.Equal(t, entity.RoleOperator, out.Role, "sin rol explícito se asigna operator")
	assert.Equal(t, "active", out.Status)

	stored := repo.users["ana"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secreto123", stored.PasswordHash, "el password nunca se guarda en claro")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreto123")))
}

func TestRegisterUser_UsernameDuplicado(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUseCase(repo, testJWTCfg())

	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "ana", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "ana", Password: "otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLogin_GeneraTokenParaCredencialesValidas(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUseCase(repo, testJWTCfg())

	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "ana", Password: "secreto123", Role: entity.RoleAdmin,
	})
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "secreto123"})

	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ana", out.User.Username)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUseCase(repo, testJWTCfg())

	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "ana", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "incorrecto"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc := NewAuthUseCase(newFakeUserRepo(), testJWTCfg())

	_, err := uc.Login(context.Background(), dto.LoginRequest{Username: "nadie", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUseCase(repo, testJWTCfg())

	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "ana", Password: "secreto123"})
	require.NoError(t, err)
	repo.users["ana"].Status = "disabled"

	_, err = uc.Login(context.Background(), dto.LoginRequest{Username: "ana", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
