package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"compressd/logger"
)

// Build-time variables (injected by ldflags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var startTime = time.Now()

// HealthResponse is the health check payload for load balancers and
// monitoring.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	GoVersion   string    `json:"go_version"`
	Uptime      string    `json:"uptime"`
	PendingJobs int       `json:"pending_jobs"`
	RunningJobs int       `json:"running_jobs"`
}

// formatUptime formats a duration into days, hours, minutes, seconds
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// HealthHandler reports process health plus live queue depth.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pending, running := sched.Counts()
	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Version:     version,
		GoVersion:   runtime.Version(),
		Uptime:      formatUptime(time.Since(startTime)),
		PendingJobs: pending,
		RunningJobs: running,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("failed to encode health response: %v", err)
	}
}
