package api

import (
	"encoding/json"
	"net/http"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/models"
	"droneops/showlog/internal/webhook"

	"github.com/go-chi/chi/v5"
)

// ShowResult pairs a mutated show with the webhook delivery outcome for
// operations that notify the endpoint. The mutation is already durable by the
// time the webhook fires, so a delivery failure is reported, never fatal.
type ShowResult struct {
	Show    *models.Show   `json:"show"`
	Webhook webhook.Result `json:"webhook"`
}

// ListShows handles GET /shows
func (h *Handlers) ListShows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, err := h.provider().ListShows(r.Context())
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, &shows)
	}
}

// CreateShow handles POST /shows
func (h *Handlers) CreateShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.Show
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		show, err := h.provider().CreateShow(r.Context(), body)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusCreated, show)
	}
}

// GetShow handles GET /shows/{showID}
func (h *Handlers) GetShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show, err := h.provider().GetShow(r.Context(), chi.URLParam(r, "showID"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}
		respondWithSuccess(w, http.StatusOK, show)
	}
}

// UpdateShow handles PATCH /shows/{showID}
func (h *Handlers) UpdateShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.ShowPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		show, err := h.provider().UpdateShow(r.Context(), chi.URLParam(r, "showID"), patch)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}
		respondWithSuccess(w, http.StatusOK, show)
	}
}

// DeleteShow handles DELETE /shows/{showID}. The show moves into the archive
// with deletedAt set; the endpoint is notified afterwards.
func (h *Handlers) DeleteShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show, err := h.provider().DeleteShow(r.Context(), chi.URLParam(r, "showID"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}

		res := h.deps.Dispatcher.DispatchShowEvent(r.Context(), webhook.EventShowDeleted, show)
		respondWithSuccess(w, http.StatusOK, &ShowResult{Show: show, Webhook: res})
	}
}

// ArchiveShowNow handles POST /shows/{showID}/archive, the manual early
// archive. The show.archived fan-out fires once the transition is durable.
func (h *Handlers) ArchiveShowNow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show, err := h.provider().ArchiveShowNow(r.Context(), chi.URLParam(r, "showID"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}

		res := h.deps.Dispatcher.DispatchShowEvent(r.Context(), webhook.EventShowArchived, show)
		respondWithSuccess(w, http.StatusOK, &ShowResult{Show: show, Webhook: res})
	}
}
