package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/service"
)

type PipelineHandler struct {
	pipeline service.PipelineService
	logger   *zap.Logger
}

func NewPipelineHandler(pipeline service.PipelineService, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, logger: logger}
}

// Stages 返回租户的阶段列表，首次访问触发懒播种
func (h *PipelineHandler) Stages(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.GetStages(r.Context(), TenantIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
