package api

import (
	"encoding/json"
	"net/http"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/models"
)

// GetStaff handles GET /staff
func (h *Handlers) GetStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := h.provider().GetStaff(r.Context())
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, staff)
	}
}

// ReplaceStaff handles PUT /staff. The lists are replaced wholesale.
func (h *Handlers) ReplaceStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.Staff
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		staff, err := h.provider().ReplaceStaff(r.Context(), body)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, staff)
	}
}
