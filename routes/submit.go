package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"compressd/intake"
	"compressd/logger"
)

// SubmitResponse acknowledges an admitted job.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// SubmitHandler validates a compression request, admits it and returns the
// job id immediately; the work itself runs asynchronously.
func SubmitHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("submit request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := verifyAuth(r); err != nil {
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	var req intake.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := intake.BuildJob(req, cfg.Presets)
	if err != nil {
		logger.Warnf("submit rejected: %v", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if err := sched.Submit(job); err != nil {
		logger.Warnf("submit of job %s refused: %v", job.ID, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(SubmitResponse{JobID: job.ID, Status: string(job.Status)}); err != nil {
		logger.Errorf("failed to encode submit response: %v", err)
	}
}
