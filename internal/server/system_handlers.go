package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fofliquidity/internal/database"
	"github.com/aristath/fofliquidity/internal/di"
	"github.com/aristath/fofliquidity/internal/modules/monitoring"
	"github.com/aristath/fofliquidity/internal/utils"
)

// SystemHandlers serves host status and manual job triggers
type SystemHandlers struct {
	container *di.Container
	jobs      *di.JobInstances
	startedAt time.Time
	hostStats func() (float64, float64)
	log       zerolog.Logger
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status             string                 `json:"status"`
	UptimeSeconds      int64                  `json:"uptime_seconds"`
	CPUPercent         float64                `json:"cpu_percent"`
	RAMPercent         float64                `json:"ram_percent"`
	Database           *database.Stats        `json:"database,omitempty"`
	FundCount          int                    `json:"fund_count"`
	Jobs               []string               `json:"jobs"`
	LastLiquidityCheck monitoring.CheckResult `json:"last_liquidity_check"`
	BackupsEnabled     bool                   `json:"backups_enabled"`
	EventSubscribers   int                    `json:"event_subscribers"`
	LastChecked        string                 `json:"last_checked"`
}

// NewSystemHandlers creates system handlers over the wired container
func NewSystemHandlers(container *di.Container, jobs *di.JobInstances, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		container: container,
		jobs:      jobs,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.hostStats()

	response := SystemStatusResponse{
		Status:           "healthy",
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:       cpuPercent,
		RAMPercent:       ramPercent,
		Jobs:             h.container.Scheduler.JobNames(),
		BackupsEnabled:   h.container.BackupService != nil,
		EventSubscribers: h.container.EventBus.SubscriberCount(),
		LastChecked:      time.Now().Format(time.RFC3339),
	}
	sort.Strings(response.Jobs)

	stats, err := h.container.FundsDB.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		response.Status = "degraded"
	} else {
		response.Database = stats
	}

	list, err := h.container.FundService.List()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count funds")
		response.Status = "degraded"
	} else {
		response.FundCount = len(list)
	}

	if h.jobs != nil && h.jobs.LiquidityCheck != nil {
		response.LastLiquidityCheck = h.jobs.LiquidityCheck.LastResult()
	}

	utils.WriteJSON(w, http.StatusOK, utils.NewEnvelope(response), h.log)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := h.container.Scheduler.JobNames()
	sort.Strings(names)
	utils.WriteJSON(w, http.StatusOK, utils.NewEnvelope(names), h.log)
}

// HandleTriggerLiquidityCheck handles POST /api/system/jobs/liquidity-check.
// The check runs synchronously and returns its counts.
func (h *SystemHandlers) HandleTriggerLiquidityCheck(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil || h.jobs.LiquidityCheck == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Liquidity check job not registered", h.log)
		return
	}

	h.log.Info().Msg("Manual liquidity check triggered")
	result, err := h.jobs.LiquidityCheck.Check(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual liquidity check failed")
		utils.WriteError(w, http.StatusInternalServerError, "Liquidity check failed", h.log)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.NewEnvelope(result), h.log)
}

// HandleTriggerBackup handles POST /api/system/jobs/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.container.BackupService == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Backups are not configured", h.log)
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	info, err := h.container.BackupService.CreateAndUploadBackup(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		utils.WriteError(w, http.StatusInternalServerError, "Backup failed", h.log)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.NewEnvelope(info), h.log)
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.container.BackupService == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Backups are not configured", h.log)
		return
	}

	backups, err := h.container.BackupService.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list backups", h.log)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.NewEnvelope(backups), h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
