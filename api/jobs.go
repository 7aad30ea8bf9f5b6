package api

import (
	"errors"
	"net/http"

	"github.com/xraph/vexsync/lock"
	"github.com/xraph/vexsync/schedule"
)

func (h *Handler) listJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"jobs": h.jobs.Jobs()})
}

// runJob runs a job and waits for it.
func (h *Handler) runJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	err := h.jobs.Trigger(r.Context(), name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "done"})
	case errors.Is(err, schedule.ErrUnknownJob):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrRunning), errors.Is(err, lock.ErrHeld):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
