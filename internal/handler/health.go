package handler

import "net/http"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	if len(s.openAPI) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "openapi document not found"))
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(s.openAPI)
}
