package handler

import "net/http"

// HandleHealth is the liveness check: GET /healthz → {"status":"ok"}.
// It does not touch the database; a slow DB should not get the pod killed.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
