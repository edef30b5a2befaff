package handlers

import (
	"net/http"

	"panic-alerter/pkg/version"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status  string `json:"status"`
	Module  string `json:"module,omitempty"`
	Version string `json:"version,omitempty"`
}

// HealthHandler creates a generic health check handler for a given module
func HealthHandler(moduleName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Health checks are excluded from request logging to reduce noise.
		SuccessResponse(w, HealthResponse{
			Status:  "healthy",
			Module:  moduleName,
			Version: version.GetVersionString(),
		}, http.StatusOK)
	}
}