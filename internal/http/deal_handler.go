package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/service"
)

type DealHandler struct {
	deals  service.DealService
	logger *zap.Logger
}

func NewDealHandler(deals service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{deals: deals, logger: logger}
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.deals.ListDeals(r.Context(), TenantIDFromContext(r.Context()), r.URL.Query().Get("stageId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDealRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := uuid.Parse(req.StageID); err != nil {
		writeError(w, http.StatusBadRequest, "stageId must be a uuid")
		return
	}

	item, err := h.deals.CreateDeal(r.Context(), TenantIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "deal not found")
		return
	}

	var req service.UpdateDealRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.deals.UpdateDeal(r.Context(), TenantIDFromContext(r.Context()), id, req); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move 阶段移动：204 成功 / 404 商机不存在 / 400 目标阶段无效 / 409 并发冲突
func (h *DealHandler) Move(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "deal not found")
		return
	}

	var req struct {
		ToStageID string `json:"toStageId"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := uuid.Parse(req.ToStageID); err != nil {
		writeError(w, http.StatusBadRequest, "toStageId must be a uuid")
		return
	}

	actorID := ""
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		actorID = claims.UserID
	}

	if err := h.deals.MoveDeal(r.Context(), TenantIDFromContext(r.Context()), id, req.ToStageID, actorID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "deal not found")
		return
	}
	if err := h.deals.DeleteDeal(r.Context(), TenantIDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DealHandler) History(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "deal not found")
		return
	}
	items, err := h.deals.ListHistory(r.Context(), TenantIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DealHandler) Stats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.deals.DealStats(r.Context(), TenantIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
