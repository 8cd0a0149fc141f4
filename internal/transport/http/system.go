package http

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatus is the payload of the status endpoint.
type SystemStatus struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
	Uptime        string  `json:"uptime"`
}

// SystemHandler reports process and host health.
type SystemHandler struct {
	startedAt time.Time
}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startedAt: time.Now()}
}

// Status handles GET /api/v1/system/status.
func (h *SystemHandler) Status(c *gin.Context) {
	status := SystemStatus{
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = vm.UsedPercent
		status.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	respondSuccess(c, http.StatusOK, status, "")
}
