package api

import (
	"net/http"

	"droneops/showlog/internal/constants"

	"github.com/go-chi/chi/v5"
)

// ListArchivedShows handles GET /archive
func (h *Handlers) ListArchivedShows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, err := h.provider().ListArchivedShows(r.Context())
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, &shows)
	}
}

// GetArchivedShow handles GET /archive/{showID}
func (h *Handlers) GetArchivedShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show, err := h.provider().GetArchivedShow(r.Context(), chi.URLParam(r, "showID"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgArchiveNotFound)
			return
		}
		respondWithSuccess(w, http.StatusOK, show)
	}
}
