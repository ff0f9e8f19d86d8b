package api

import (
	"encoding/json"
	"net/http"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/models"
	"droneops/showlog/internal/webhook"

	"github.com/go-chi/chi/v5"
)

// EntryResult pairs an entry mutation with its updated show and the webhook
// delivery outcome.
type EntryResult struct {
	Show    *models.Show   `json:"show"`
	Entry   *models.Entry  `json:"entry"`
	Webhook webhook.Result `json:"webhook"`
}

// AddEntry handles POST /shows/{showID}/entries
func (h *Handlers) AddEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.Entry
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		show, entry, err := h.provider().AddEntry(r.Context(), chi.URLParam(r, "showID"), body)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}

		res := h.deps.Dispatcher.DispatchEntryEvent(r.Context(), webhook.EventEntryCreated, show, entry)
		respondWithSuccess(w, http.StatusCreated, &EntryResult{Show: show, Entry: entry, Webhook: res})
	}
}

// UpdateEntry handles PATCH /shows/{showID}/entries/{entryID}
func (h *Handlers) UpdateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.EntryPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondWithError(w, http.StatusBadRequest, constants.MsgInvalidBody)
			return
		}

		show, entry, err := h.provider().UpdateEntry(r.Context(),
			chi.URLParam(r, "showID"), chi.URLParam(r, "entryID"), patch)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}
		if entry == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgEntryNotFound)
			return
		}

		res := h.deps.Dispatcher.DispatchEntryEvent(r.Context(), webhook.EventEntryUpdated, show, entry)
		respondWithSuccess(w, http.StatusOK, &EntryResult{Show: show, Entry: entry, Webhook: res})
	}
}

// DeleteEntry handles DELETE /shows/{showID}/entries/{entryID}. The payload
// carries the removed entry's last state.
func (h *Handlers) DeleteEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show, entry, err := h.provider().DeleteEntry(r.Context(),
			chi.URLParam(r, "showID"), chi.URLParam(r, "entryID"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if show == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}
		if entry == nil {
			respondWithError(w, http.StatusNotFound, constants.MsgEntryNotFound)
			return
		}

		res := h.deps.Dispatcher.DispatchEntryEvent(r.Context(), webhook.EventEntryDeleted, show, entry)
		respondWithSuccess(w, http.StatusOK, &EntryResult{Show: show, Entry: entry, Webhook: res})
	}
}
