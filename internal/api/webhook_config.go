package api

import (
	"encoding/json"
	"net/http"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/webhook"
)

// GetWebhookStatus handles GET /webhook/status
func (h *Handlers) GetWebhookStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.deps.Dispatcher.Status()
		respondWithSuccess(w, http.StatusOK, &status)
	}
}

// SetWebhookConfig handles PUT /webhook/config. The new configuration is
// installed and immediately verified with a handshake; the verification
// snapshot is the response.
func (h *Handlers) SetWebhookConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg webhook.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		status := h.deps.Dispatcher.SetConfig(r.Context(), cfg)
		respondWithSuccess(w, http.StatusOK, &status)
	}
}
