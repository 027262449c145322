package repository

import (
	"context"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// UsersRepository 用户Repository接口
type UsersRepository interface {
	// GetActiveUserByEmail 登录查询：租户内按 email（已小写化）找激活用户
	GetActiveUserByEmail(ctx context.Context, tenantID, email string) (*domain.User, error)

	// GetUser 根据user_id获取用户（租户内）
	GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error)

	// CreateUser 创建用户（email 租户内唯一，由数据库约束保证）
	CreateUser(ctx context.Context, user *domain.User) error
}
