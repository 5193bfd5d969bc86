package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/response"
)

// Database exposes the handle and engine name of the store
type Database interface {
	DB() *sql.DB
	Driver() string
}

// AuditLog reports whether webhook audit logging is active
type AuditLog interface {
	IsEnabled() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db          Database
	providers   ProviderSource
	auditLog    AuditLog
	environment string
	startTime   time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Database    *DatabaseHealth           `json:"database"`
	Provider    *ProviderHealth           `json:"provider"`
	System      *SystemHealth             `json:"system"`
	Services    map[string]*ServiceHealth `json:"services"`
}

// DatabaseHealth represents database health status
type DatabaseHealth struct {
	Status       string        `json:"status"`
	Driver       string        `json:"driver,omitempty"`
	Connected    bool          `json:"connected"`
	ResponseTime time.Duration `json:"response_time_ms"`
	OpenConns    int           `json:"open_connections"`
	InUseConns   int           `json:"in_use_connections"`
	IdleConns    int           `json:"idle_connections"`
	WaitCount    int64         `json:"wait_count"`
	Error        string        `json:"error,omitempty"`
}

// ProviderHealth represents the active payment provider
type ProviderHealth struct {
	Status        string `json:"status"`
	Configured    bool   `json:"configured"`
	Sandbox       bool   `json:"sandbox"`
	BaseURL       string `json:"base_url,omitempty"`
	CaptureMethod string `json:"capture_method,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Memory     *MemoryHealth `json:"memory"`
	GoRoutines int           `json:"goroutines"`
}

// MemoryHealth represents memory usage
type MemoryHealth struct {
	Alloc        string  `json:"alloc"`
	TotalAlloc   string  `json:"total_alloc"`
	Sys          string  `json:"sys"`
	GCRuns       uint32  `json:"gc_runs"`
	UsagePercent float64 `json:"usage_percent"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string `json:"status"`
	Healthy     bool   `json:"healthy"`
	Description string `json:"description,omitempty"`
}

// NewHealthHandler creates a new health handler; auditLog may be nil
func NewHealthHandler(db Database, providers ProviderSource, auditLog AuditLog, environment string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		providers:   providers,
		auditLog:    auditLog,
		environment: environment,
		startTime:   time.Now(),
	}
}

// CheckHealth performs the health checks
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).String(),
		Environment: h.environment,
		Database:    h.checkDatabaseHealth(ctx),
		Provider:    h.checkProviderHealth(),
		System:      checkSystemHealth(),
		Services:    h.checkServicesHealth(),
	}
	health.Status = determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) *DatabaseHealth {
	dbHealth := &DatabaseHealth{Status: "unknown"}

	if h.db == nil || h.db.DB() == nil {
		dbHealth.Status = "not_configured"
		dbHealth.Error = "Database not configured"
		return dbHealth
	}
	dbHealth.Driver = h.db.Driver()

	start := time.Now()
	if err := h.db.DB().PingContext(ctx); err != nil {
		dbHealth.Status = "unhealthy"
		dbHealth.Error = err.Error()
		dbHealth.ResponseTime = time.Since(start)
		return dbHealth
	}

	dbHealth.Connected = true
	dbHealth.ResponseTime = time.Since(start)

	stats := h.db.DB().Stats()
	dbHealth.OpenConns = stats.OpenConnections
	dbHealth.InUseConns = stats.InUse
	dbHealth.IdleConns = stats.Idle
	dbHealth.WaitCount = stats.WaitCount

	if dbHealth.ResponseTime > time.Second || dbHealth.WaitCount > 100 {
		dbHealth.Status = "degraded"
	} else {
		dbHealth.Status = "healthy"
	}
	return dbHealth
}

func (h *HealthHandler) checkProviderHealth() *ProviderHealth {
	if h.providers == nil || h.providers.Current() == nil {
		return &ProviderHealth{Status: "not_configured"}
	}

	settings := h.providers.Current().Settings()
	return &ProviderHealth{
		Status:        "healthy",
		Configured:    true,
		Sandbox:       settings.Sandbox,
		BaseURL:       settings.BaseURL,
		CaptureMethod: string(settings.CaptureMethod),
	}
}

func (h *HealthHandler) checkServicesHealth() map[string]*ServiceHealth {
	services := make(map[string]*ServiceHealth)

	if h.auditLog != nil && h.auditLog.IsEnabled() {
		services["webhook_audit"] = &ServiceHealth{
			Status:      "healthy",
			Healthy:     true,
			Description: "Webhook audit logging to OpenSearch",
		}
	} else {
		services["webhook_audit"] = &ServiceHealth{
			Status:      "not_configured",
			Description: "OpenSearch logging disabled",
		}
	}

	return services
}

func checkSystemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Memory: &MemoryHealth{
			Alloc:        formatBytes(memStats.Alloc),
			TotalAlloc:   formatBytes(memStats.TotalAlloc),
			Sys:          formatBytes(memStats.Sys),
			GCRuns:       memStats.NumGC,
			UsagePercent: float64(memStats.Alloc) / float64(memStats.Sys) * 100,
		},
		GoRoutines: runtime.NumGoroutine(),
	}
}

func determineOverallStatus(health *HealthStatus) string {
	if health.Database != nil && health.Database.Status == "unhealthy" {
		return "unhealthy"
	}
	if health.Provider == nil || !health.Provider.Configured {
		return "unhealthy"
	}
	if health.System != nil && health.System.Memory.UsagePercent > 90 {
		return "degraded"
	}
	if health.Database != nil && health.Database.Status == "degraded" {
		return "degraded"
	}
	return "healthy"
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
