package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/repository"
)

type TenantHandler struct {
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewTenantHandler(tenants repository.TenantsRepository, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, logger: logger}
}

// Current 返回请求头里解析出的租户
func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.GetTenant(r.Context(), TenantIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           tenant.TenantID,
		"name":         tenant.TenantName,
		"createdAtUtc": tenant.CreatedAt,
	})
}
