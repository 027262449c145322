package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

type fakeTenantsRepo struct {
	tenants map[string]*domain.Tenant
}

func newFakeTenantsRepo() *fakeTenantsRepo {
	return &fakeTenantsRepo{tenants: map[string]*domain.Tenant{}}
}

func (f *fakeTenantsRepo) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

func (f *fakeTenantsRepo) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	_, ok := f.tenants[tenantID]
	return ok, nil
}

func (f *fakeTenantsRepo) AnyTenant(ctx context.Context) (bool, error) {
	return len(f.tenants) > 0, nil
}

func (f *fakeTenantsRepo) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	f.tenants[tenant.TenantID] = tenant
	return nil
}

func TestSeed_CreatesTenantAndAdmin(t *testing.T) {
	tenants := newFakeTenantsRepo()
	users := newFakeUsersRepo()
	svc := NewSetupService(tenants, users, zap.NewNop())

	resp, err := svc.Seed(context.Background(), SeedRequest{
		TenantName:    "Acme Inc.",
		AdminName:     "Ada",
		AdminEmail:    "ADA@Example.com",
		AdminPassword: "Passw0rd!seed",
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Inc.", resp.TenantName)
	assert.Equal(t, "ada@example.com", resp.AdminEmail)

	admin, err := users.GetUser(context.Background(), resp.TenantID, resp.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Role)
	assert.True(t, admin.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("Passw0rd!seed")))
}

func TestSeed_SecondSeedConflicts(t *testing.T) {
	tenants := newFakeTenantsRepo()
	svc := NewSetupService(tenants, newFakeUsersRepo(), zap.NewNop())
	req := SeedRequest{
		TenantName:    "Acme Inc.",
		AdminName:     "Ada",
		AdminEmail:    "ada@example.com",
		AdminPassword: "Passw0rd!seed",
	}

	_, err := svc.Seed(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Seed(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSeed_ShortPasswordRejected(t *testing.T) {
	svc := NewSetupService(newFakeTenantsRepo(), newFakeUsersRepo(), zap.NewNop())

	_, err := svc.Seed(context.Background(), SeedRequest{
		TenantName:    "Acme Inc.",
		AdminName:     "Ada",
		AdminEmail:    "ada@example.com",
		AdminPassword: "short",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
