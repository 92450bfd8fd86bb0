package handler

import (
	"log/slog"
	"net/http"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// DashboardHandler serves the aggregate views.
type DashboardHandler struct {
	dashboards *service.DashboardService
	logger     *slog.Logger
}

func NewDashboardHandler(dashboards *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, logger: logger}
}

// HandleUserDashboard summarizes the caller's own tasks.
//
// HTTP: GET /dashboard
func (h *DashboardHandler) HandleUserDashboard(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	dash, err := h.dashboards.ForUser(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}

// HandleAdminDashboard is the system-wide view.
//
// HTTP: GET /admin/dashboard
func (h *DashboardHandler) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	dash, err := h.dashboards.ForAdmin(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}
