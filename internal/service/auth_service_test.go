package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsecrm/pulsecrm/internal/config"
	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/store"
)

type fakeUsersRepo struct {
	users map[string]*domain.User // keyed by user_id
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*domain.User{}}
}

func (f *fakeUsersRepo) GetActiveUserByEmail(ctx context.Context, tenantID, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (f *fakeUsersRepo) GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsersRepo) CreateUser(ctx context.Context, user *domain.User) error {
	f.users[user.UserID] = user
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-secret",
		Issuer:          "pulsecrm",
		Audience:        "pulsecrm-web",
		ExpiresMinutes:  60,
		RefreshTTLHours: 1,
	}
}

type authFixture struct {
	svc      AuthService
	users    *fakeUsersRepo
	kv       store.KV
	tenantID string
	user     *domain.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUsersRepo()
	kv := store.NewMemoryKV()
	tenantID := uuid.New().String()

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!test"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		UserID:       uuid.New().String(),
		TenantID:     tenantID,
		Name:         "Ada Admin",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		Role:         "Admin",
		IsActive:     true,
	}
	users.users[user.UserID] = user

	return &authFixture{
		svc:      NewAuthService(users, kv, testJWTConfig(), zap.NewNop()),
		users:    users,
		kv:       kv,
		tenantID: tenantID,
		user:     user,
	}
}

func TestLogin_Success(t *testing.T) {
	fx := newAuthFixture(t)

	resp, err := fx.svc.Login(context.Background(), fx.tenantID, LoginRequest{
		Email:    "  Ada@Example.com ", // 大小写和空白不敏感
		Password: "Passw0rd!test",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, fx.user.UserID, resp.UserID)
	assert.Equal(t, fx.tenantID, resp.TenantID)

	claims, err := fx.svc.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fx.user.UserID, claims.UserID)
	assert.Equal(t, fx.tenantID, claims.TenantID)
	assert.Equal(t, "Admin", claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Login(context.Background(), fx.tenantID, LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_WrongTenant(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Login(context.Background(), uuid.New().String(), LoginRequest{
		Email:    "ada@example.com",
		Password: "Passw0rd!test",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_RotatesToken(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Login(ctx, fx.tenantID, LoginRequest{
		Email:    "ada@example.com",
		Password: "Passw0rd!test",
	})
	require.NoError(t, err)

	second, err := fx.svc.Refresh(ctx, fx.tenantID, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// 旧 token 已轮换，重放失败
	_, err = fx.svc.Refresh(ctx, fx.tenantID, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_TenantMismatch(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	resp, err := fx.svc.Login(ctx, fx.tenantID, LoginRequest{
		Email:    "ada@example.com",
		Password: "Passw0rd!test",
	})
	require.NoError(t, err)

	_, err = fx.svc.Refresh(ctx, uuid.New().String(), resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyToken_Garbage(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	fx := newAuthFixture(t)

	resp, err := fx.svc.Login(context.Background(), fx.tenantID, LoginRequest{
		Email:    "ada@example.com",
		Password: "Passw0rd!test",
	})
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "different-secret"
	other := NewAuthService(fx.users, fx.kv, otherCfg, zap.NewNop())

	_, err = other.VerifyToken(resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
