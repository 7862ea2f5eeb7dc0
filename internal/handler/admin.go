package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"arpg-auction-gateway/internal/gateway"
	"arpg-auction-gateway/internal/repository"
	"arpg-auction-gateway/pkg/apierror"
	"arpg-auction-gateway/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	gateway       *gateway.Gateway
	characterRepo repository.CharacterRepository // Interface, not concrete type
	auditRepo     repository.AuditRepository
	dbType        string
	startTime     time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	gw *gateway.Gateway,
	characterRepo repository.CharacterRepository,
	auditRepo repository.AuditRepository,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		gateway:       gw,
		characterRepo: characterRepo,
		auditRepo:     auditRepo,
		dbType:        dbType,
		startTime:     time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	if h.gateway != nil {
		stats["gateway"] = h.gateway.Stats()
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":   float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":     float64(memStats.Sys) / 1024 / 1024,
		"num_gc":     memStats.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}

	if h.characterRepo != nil {
		repoStats, err := h.characterRepo.GetStats(ctx)
		if err == nil {
			stats["characters"] = repoStats
		} else {
			stats["characters"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetAuditLog handles GET /api/v1/admin/audit - paginated committed auction
// operations, newest first.
func (h *AdminHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	if h.auditRepo == nil {
		response.Error(w, apierror.ServiceUnavailable("audit log not configured"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	records, total, err := h.auditRepo.GetRecords(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to fetch audit records"))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, records, page, limit, total)
}
