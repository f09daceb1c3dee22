package routes

import (
	"fmt"
	"net/http"

	"compressd/logger"
)

// CancelHandler cancels a pending or running job by id.
func CancelHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("cancel request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	if err := sched.Cancel(id); err != nil {
		logger.Warnf("cancel of job %s refused: %v", id, err)
		http.Error(w, fmt.Sprintf("Cannot cancel job: %v", err), statusFor(err))
		return
	}

	logger.Infof("cancel accepted for job %s", id)
	w.WriteHeader(http.StatusNoContent)
}
