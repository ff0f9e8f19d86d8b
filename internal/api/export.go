package api

import (
	"net/http"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/export"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/models"
)

// TableExport is the JSON rendering of the tabular export: the fixed column
// header plus one row per entry per show.
type TableExport struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// exportShows resolves the export scope from query parameters: a single show
// by id, the active shows, optionally the archive as well.
func (h *Handlers) exportShows(r *http.Request) ([]models.Show, bool, error) {
	ctx := r.Context()

	if id := r.URL.Query().Get("showId"); id != "" {
		show, err := h.provider().GetShow(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if show == nil {
			if show, err = h.provider().GetArchivedShow(ctx, id); err != nil {
				return nil, false, err
			}
		}
		if show == nil {
			return nil, false, nil
		}
		return []models.Show{*show}, true, nil
	}

	shows, err := h.provider().ListShows(ctx)
	if err != nil {
		return nil, false, err
	}
	if r.URL.Query().Get("includeArchived") == "true" {
		archived, err := h.provider().ListArchivedShows(ctx)
		if err != nil {
			return nil, false, err
		}
		shows = append(shows, archived...)
	}
	return shows, true, nil
}

// ExportCSV handles GET /export/csv
func (h *Handlers) ExportCSV() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, found, err := h.exportShows(r)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if !found {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="showlog.csv"`)
		if err := export.WriteShowsCSV(w, shows); err != nil {
			// The header is already on the wire; all we can do is log.
			logging.Error("csv export failed mid-stream", "error", err.Error())
		}
	}
}

// ExportJSON handles GET /export/json
func (h *Handlers) ExportJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, found, err := h.exportShows(r)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		if !found {
			respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
			return
		}

		table := TableExport{Columns: export.Columns(), Rows: [][]string{}}
		for i := range shows {
			for j := range shows[i].Entries {
				table.Rows = append(table.Rows, export.BuildRow(&shows[i], &shows[i].Entries[j]))
			}
		}
		respondWithSuccess(w, http.StatusOK, &table)
	}
}
