package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"compressd/logger"
	"compressd/models"
)

// StatusResponse is the live view of one job.
type StatusResponse struct {
	Job models.Job `json:"job"`
}

// StatusHandler returns a job's current state, falling back to the archive
// for jobs that already left the live table.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("status request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	job, ok := sched.Job(id)
	if !ok {
		archived, err := store.Get(id)
		if err != nil {
			logger.Errorf("history lookup for %s failed: %v", id, err)
			http.Error(w, "History lookup failed", http.StatusInternalServerError)
			return
		}
		if archived == nil {
			http.Error(w, fmt.Sprintf("Job %s not found", id), http.StatusNotFound)
			return
		}
		job = *archived
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(StatusResponse{Job: job}); err != nil {
		logger.Errorf("failed to encode status response: %v", err)
	}
}
