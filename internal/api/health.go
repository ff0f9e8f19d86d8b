package api

import (
	"encoding/json"
	"net/http"
	"time"

	"droneops/showlog/internal/constants"
)

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Services map[string]ServiceStatus `json:"services"`
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
}

// HealthCheckHandler handles GET /healthCheck
func (h *Handlers) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]ServiceStatus)

		provider := h.provider()
		storeStatus := "ok"
		storeDetails := provider.Label() + " connected"
		if err := provider.Ping(r.Context()); err != nil {
			storeStatus = "down"
			storeDetails = constants.MsgStorageUnhealthy + ": " + err.Error()
		}
		services["storage"] = ServiceStatus{
			Status:  storeStatus,
			Details: storeDetails,
		}

		webhookStatus := h.deps.Dispatcher.Status()
		services["webhook"] = ServiceStatus{
			Status:  webhookStatus.State,
			Details: webhookStatus.Message,
		}

		overallStatus := "ok"
		if storeStatus != "ok" {
			overallStatus = "down"
		}

		now := time.Now()
		uptime := now.Sub(h.deps.UpSince).Round(time.Second).String()

		resp := HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
