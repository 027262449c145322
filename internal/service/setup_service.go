package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
)

// SetupService 首次部署初始化服务
type SetupService interface {
	// Seed 创建首个租户和管理员用户，数据库已有租户时返回 Conflict
	Seed(ctx context.Context, req SeedRequest) (*SeedResponse, error)
}

// SeedRequest 初始化请求
type SeedRequest struct {
	TenantName    string `json:"tenantName"`
	AdminName     string `json:"adminName"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
}

// SeedResponse 初始化结果
type SeedResponse struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	AdminID    string `json:"adminId"`
	AdminEmail string `json:"adminEmail"`
}

type setupService struct {
	tenants repository.TenantsRepository
	users   repository.UsersRepository
	logger  *zap.Logger
}

func NewSetupService(tenants repository.TenantsRepository, users repository.UsersRepository, logger *zap.Logger) SetupService {
	return &setupService{
		tenants: tenants,
		users:   users,
		logger:  logger,
	}
}

func (s *setupService) Seed(ctx context.Context, req SeedRequest) (*SeedResponse, error) {
	tenantName := strings.TrimSpace(req.TenantName)
	adminName := strings.TrimSpace(req.AdminName)
	adminEmail := strings.ToLower(strings.TrimSpace(req.AdminEmail))

	if tenantName == "" || adminName == "" || adminEmail == "" {
		return nil, fmt.Errorf("tenantName, adminName and adminEmail are required: %w", domain.ErrInvalidArgument)
	}
	if len(req.AdminPassword) < 8 {
		return nil, fmt.Errorf("adminPassword must be at least 8 characters: %w", domain.ErrInvalidArgument)
	}

	exists, err := s.tenants.AnyTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing tenants: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("database already seeded: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		TenantID:   uuid.NewString(),
		TenantName: tenantName,
		CreatedAt:  now,
	}
	if err := s.tenants.CreateTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	admin := &domain.User{
		UserID:       uuid.NewString(),
		TenantID:     tenant.TenantID,
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         "Admin",
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("initial tenant seeded",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("admin_id", admin.UserID),
	)

	return &SeedResponse{
		TenantID:   tenant.TenantID,
		TenantName: tenant.TenantName,
		AdminID:    admin.UserID,
		AdminEmail: admin.Email,
	}, nil
}
