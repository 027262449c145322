package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/service"
)

type SetupHandler struct {
	setup  service.SetupService
	logger *zap.Logger
}

func NewSetupHandler(setup service.SetupService, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{setup: setup, logger: logger}
}

func (h *SetupHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var req service.SeedRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.setup.Seed(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
