package api

import (
	"net/http"
	"time"

	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/models"
	"droneops/showlog/internal/store"
	"droneops/showlog/internal/webhook"
)

// Dependencies is the wiring handed to every handler: the active storage
// provider (behind a registry so it can be swapped), the webhook dispatcher,
// and the metrics registry.
type Dependencies struct {
	Registry   *store.Registry
	Dispatcher *webhook.Dispatcher
	Metrics    *metrics.Registry
	UpSince    time.Time
}

// Handlers groups all HTTP handlers over one Dependencies value.
type Handlers struct {
	deps *Dependencies
}

func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{deps: deps}
}

func (h *Handlers) provider() store.Provider {
	return h.deps.Registry.Active()
}

// respondStoreError maps a provider error onto the wire: validation failures
// are the caller's fault, everything else is a storage fault.
func respondStoreError(w http.ResponseWriter, err error) {
	if models.IsValidation(err) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}
