package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsecrm/pulsecrm/internal/config"
	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
	"github.com/pulsecrm/pulsecrm/internal/store"
)

const refreshKeyPrefix = "refresh:"

// AuthService 认证授权服务接口
type AuthService interface {
	// Login 租户内邮箱+密码登录，签发访问令牌和 refresh token
	Login(ctx context.Context, tenantID string, req LoginRequest) (*LoginResponse, error)

	// Refresh 轮换 refresh token 并签发新的访问令牌
	Refresh(ctx context.Context, tenantID, refreshToken string) (*LoginResponse, error)

	// VerifyToken 校验访问令牌，返回声明（中间件使用）
	VerifyToken(tokenString string) (*Claims, error)
}

// Claims 访问令牌携带的身份声明
type Claims struct {
	UserID   string
	TenantID string
	Role     string
	Email    string
	Name     string
}

type tokenClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

type authService struct {
	users  repository.UsersRepository
	tokens store.KV
	cfg    config.JWTConfig
	logger *zap.Logger
}

func NewAuthService(users repository.UsersRepository, tokens store.KV, cfg config.JWTConfig, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TenantID     string `json:"tenantId"`
}

func (s *authService) Login(ctx context.Context, tenantID string, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.GetActiveUserByEmail(ctx, tenantID, email)
	if err != nil {
		// 不区分 "用户不存在" 和 "密码错误"，避免账号枚举
		s.logger.Warn("login failed: user lookup",
			zap.String("tenant_id", tenantID),
			zap.String("reason", "user_not_found"),
		)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", user.UserID),
		)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, tenantID, refreshToken string) (*LoginResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("missing refresh token: %w", domain.ErrUnauthorized)
	}

	val, err := s.tokens.Get(ctx, refreshKeyPrefix+refreshToken)
	if err != nil {
		if err == store.ErrMiss {
			return nil, fmt.Errorf("unknown refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}

	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 || parts[0] != tenantID {
		return nil, fmt.Errorf("refresh token tenant mismatch: %w", domain.ErrUnauthorized)
	}

	// 一次性轮换：旧 token 立即失效
	if err := s.tokens.Del(ctx, refreshKeyPrefix+refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	user, err := s.users.GetUser(ctx, tenantID, parts[1])
	if err != nil {
		return nil, fmt.Errorf("refresh for unknown user: %w", domain.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user deactivated: %w", domain.ErrUnauthorized)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*LoginResponse, error) {
	now := time.Now()
	claims := tokenClaims{
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.ExpiresMinutes) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := uuid.NewString()
	ttl := time.Duration(s.cfg.RefreshTTLHours) * time.Hour
	if err := s.tokens.Set(ctx, refreshKeyPrefix+refresh, user.TenantID+":"+user.UserID, ttl); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Info("tokens issued",
		zap.String("tenant_id", user.TenantID),
		zap.String("user_id", user.UserID),
	)

	return &LoginResponse{
		AccessToken:  signed,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		UserID:       user.UserID,
		Name:         user.Name,
		Role:         user.Role,
		TenantID:     user.TenantID,
	}, nil
}

func (s *authService) VerifyToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}

	return &Claims{
		UserID:   tc.Subject,
		TenantID: tc.TenantID,
		Role:     tc.Role,
		Email:    tc.Email,
		Name:     tc.Name,
	}, nil
}
