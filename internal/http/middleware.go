package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/repository"
	"github.com/pulsecrm/pulsecrm/internal/service"
)

type ctxKey string

const (
	ctxKeyTenantID ctxKey = "tenant_id"
	ctxKeyClaims   ctxKey = "claims"
)

// TenantIDFromContext 读取中间件注入的租户 ID
func TenantIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyTenantID).(string)
	return v
}

// ClaimsFromContext 读取认证中间件注入的身份声明，未认证时返回 nil
func ClaimsFromContext(ctx context.Context) *service.Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*service.Claims)
	return v
}

// isPublicPath 不需要租户头/令牌的路径
func isPublicPath(path string) bool {
	switch path {
	case "/", "/health", "/ready":
		return true
	}
	return strings.HasPrefix(path, "/setup/")
}

// isTenantOnlyPath 需要租户头但不需要令牌的路径（登录和刷新）
func isTenantOnlyPath(path string) bool {
	return path == "/auth/login" || path == "/auth/refresh"
}

// TenantMiddleware 校验 X-Tenant-Id 头并把租户 ID 写入请求上下文
func TenantMiddleware(tenants repository.TenantsRepository, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing X-Tenant-Id header")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid X-Tenant-Id header")
			return
		}

		exists, err := tenants.TenantExists(r.Context(), tenantID.String())
		if err != nil {
			logger.Error("tenant lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyTenantID, tenantID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware 校验 Bearer 令牌，并且令牌租户必须与请求租户一致
func AuthMiddleware(auth service.AuthService, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) || isTenantOnlyPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if tenantID := TenantIDFromContext(r.Context()); claims.TenantID != tenantID {
			logger.Warn("token tenant mismatch",
				zap.String("token_tenant", claims.TenantID),
				zap.String("request_tenant", tenantID),
			)
			writeError(w, http.StatusUnauthorized, "token does not belong to tenant")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
