package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/repository"
	"github.com/pulsecrm/pulsecrm/internal/service"
)

type LeadHandler struct {
	leads  service.LeadService
	logger *zap.Logger
}

func NewLeadHandler(leads service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, logger: logger}
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListLeadsRequest{
		Page:     parseInt(q.Get("page"), 1),
		PageSize: parseInt(q.Get("pageSize"), 20),
		Status:   q.Get("status"),
		Source:   q.Get("source"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
		SortDir:  q.Get("sortDir"),
	}

	resp, err := h.leads.ListLeads(r.Context(), TenantIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	item, err := h.leads.GetLead(r.Context(), TenantIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLeadRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.leads.CreateLead(r.Context(), TenantIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	var req service.UpdateLeadRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.leads.UpdateLead(r.Context(), TenantIDFromContext(r.Context()), id, req); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err := h.leads.DeleteLead(r.Context(), TenantIDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.leads.LeadStats(r.Context(), TenantIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export 以 xlsx 导出当前过滤集下的全部线索
func (h *LeadHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.LeadFilters{
		Status: q.Get("status"),
		Source: q.Get("source"),
		Search: q.Get("search"),
	}

	leads, err := h.leads.ExportLeads(r.Context(), TenantIDFromContext(r.Context()), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := GenerateLeadsExport(leads)
	if err != nil {
		h.logger.Error("failed to generate leads export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate export")
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
