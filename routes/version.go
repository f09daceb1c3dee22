package routes

import (
	"encoding/json"
	"net/http"
	"runtime"

	"compressd/logger"
)

// VersionResponse describes the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
}

// VersionHandler provides version information about the build
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := VersionResponse{
		Version:   version,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		GitCommit: gitCommit,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("failed to encode version response: %v", err)
	}
}
