package webhook

import (
	"context"
	"time"

	"droneops/showlog/internal/export"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/models"
)

// Event names dispatched by the API layer and the archival state machine.
const (
	EventEntryCreated = "entry.created"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"
	EventShowArchived = "show.archived"
	EventShowDeleted  = "show.deleted"
)

const schemaVersion = 2

// DispatchEntryEvent sends one payload for a single-entry mutation: the full
// table row, the CSV rendering, a message object keyed by column
// name, and raw show/entry snapshots.
func (d *Dispatcher) DispatchEntryEvent(ctx context.Context, event string, show *models.Show, entry *models.Entry) Result {
	cfg := d.config()
	row := export.BuildRow(show, entry)

	payload := map[string]any{
		"event":         event,
		"schemaVersion": schemaVersion,
		"dispatchedAt":  time.Now().UnixMilli(),
		"target": map[string]any{
			"url":    cfg.URL,
			"method": cfg.Method,
		},
		"table": map[string]any{
			"columns": export.Columns(),
			"row":     row,
		},
		"csv": map[string]any{
			"header": export.Columns(),
			"row":    export.CSVLine(row),
		},
		"message": export.MessageMap(row),
		"show": map[string]any{
			"id":    show.ID,
			"label": show.Label,
			"date":  show.Date,
			"time":  show.Time,
			"crew":  show.Crew,
		},
		"entry": entry,
	}
	return d.send(ctx, event, payload)
}

// DispatchShowEvent sends a show-level event. show.archived fans out into
// one flattened payload per entry; other events (show.deleted) send a single
// payload carrying every table row plus a show summary.
func (d *Dispatcher) DispatchShowEvent(ctx context.Context, event string, show *models.Show) Result {
	if event == EventShowArchived {
		return d.DispatchShowArchived(ctx, show, 1, 0, time.Now().UnixMilli())
	}
	return d.dispatchShowSummary(ctx, event, show)
}

// DispatchShowArchived sends the show.archived fan-out: one payload per
// entry, sequential and independent, tagged with batch metadata so the
// receiver can reconstruct a multi-show archival batch. A show with no
// entries dispatches nothing and succeeds with Dispatched 0.
func (d *Dispatcher) DispatchShowArchived(ctx context.Context, show *models.Show, totalShows, showIndex int, triggeredAt int64) Result {
	if len(show.Entries) == 0 {
		return Result{Success: true, Dispatched: 0}
	}

	out := Result{Success: true}
	for i := range show.Entries {
		e := &show.Entries[i]
		payload := map[string]any{
			"event":           EventShowArchived,
			"schemaVersion":   schemaVersion,
			"dispatchedAt":    time.Now().UnixMilli(),
			"totalShows":      totalShows,
			"showIndex":       showIndex,
			"triggeredAt":     triggeredAt,
			"showDate":        show.Date,
			"showTime":        show.Time,
			"showNumber":      show.Label,
			"leadPilot":       show.LeadPilot,
			"monkeyLead":      show.MonkeyLead,
			"operator":        e.Operator,
			"monkeyId":        e.UnitID,
			"planned":         models.YesNoBool(e.Planned),
			"launched":        models.YesNoBool(e.Launched),
			"commandReceived": models.YesNoBool(e.CommandRx),
			"primaryIssue":    e.PrimaryIssue,
			"subIssue":        e.SubIssue,
		}

		res := d.send(ctx, EventShowArchived, payload)
		if res.Success {
			out.Dispatched++
			continue
		}
		// One failed entry never blocks the rest of the batch.
		out.Success = false
		if out.Error == "" {
			out.Error = res.Error
			out.Status = res.Status
			out.ErrorCode = res.ErrorCode
		}
		logging.Warn("show.archived dispatch failed for entry",
			"show_id", show.ID,
			"entry_id", e.ID,
			"error", res.Error,
		)
	}
	return out
}

func (d *Dispatcher) dispatchShowSummary(ctx context.Context, event string, show *models.Show) Result {
	rows := make([][]string, 0, len(show.Entries))
	csvRows := make([]string, 0, len(show.Entries))
	for i := range show.Entries {
		row := export.BuildRow(show, &show.Entries[i])
		rows = append(rows, row)
		csvRows = append(csvRows, export.CSVLine(row))
	}

	cfg := d.config()
	payload := map[string]any{
		"event":         event,
		"schemaVersion": schemaVersion,
		"dispatchedAt":  time.Now().UnixMilli(),
		"target": map[string]any{
			"url":    cfg.URL,
			"method": cfg.Method,
		},
		"table": map[string]any{
			"columns": export.Columns(),
			"rows":    rows,
		},
		"csv": map[string]any{
			"header": export.Columns(),
			"rows":   csvRows,
		},
		"show": map[string]any{
			"id":         show.ID,
			"label":      show.Label,
			"date":       show.Date,
			"time":       show.Time,
			"crew":       show.Crew,
			"leadPilot":  show.LeadPilot,
			"monkeyLead": show.MonkeyLead,
			"notes":      show.Notes,
			"entryCount": len(show.Entries),
			"archivedAt": show.ArchivedAt,
			"deletedAt":  show.DeletedAt,
		},
	}
	return d.send(ctx, event, payload)
}
