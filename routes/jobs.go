package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"compressd/logger"
	"compressd/models"
)

// JobQueryHandler returns one archived terminal job by id.
func JobQueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	job, err := store.Get(id)
	if err != nil {
		logger.Errorf("history lookup for %s failed: %v", id, err)
		http.Error(w, "History lookup failed", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, fmt.Sprintf("No record for job %s", id), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(job); err != nil {
		logger.Errorf("failed to encode job response: %v", err)
	}
}

// JobListResponse wraps the full archive listing.
type JobListResponse struct {
	Count int          `json:"count"`
	Jobs  []models.Job `json:"jobs"`
}

// JobListHandler returns every archived terminal job, optionally filtered by
// ?status=.
func JobListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs, err := store.List()
	if err != nil {
		logger.Errorf("history list failed: %v", err)
		http.Error(w, "History list failed", http.StatusInternalServerError)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := jobs[:0]
		for _, job := range jobs {
			if string(job.Status) == status {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(JobListResponse{Count: len(jobs), Jobs: jobs}); err != nil {
		logger.Errorf("failed to encode job list: %v", err)
	}
}
