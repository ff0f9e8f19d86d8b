package export

import (
	"strconv"
	"strings"

	"droneops/showlog/internal/models"
)

// columns is the fixed tabular export schema. Order and names are part of
// the external contract shared by the CSV download and the webhook payloads.
var columns = [...]string{
	"showId", "showDate", "showTime", "showLabel", "crew",
	"leadPilot", "monkeyLead", "showNotes",
	"entryId", "unitId", "planned", "launched", "status",
	"primaryIssue", "subIssue", "otherDetail", "severity", "rootCause",
	"actions", "operator", "batteryId", "delaySec", "commandRx", "notes",
}

// Columns returns a fresh copy of the fixed column names.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns[:])
	return out
}

// BuildRow flattens one show/entry pair into one export row, one value per
// column.
// Multi-value fields are pipe-joined; the issue breakdown fields are blanked
// for completed flights so a clean run exports as a clean row.
func BuildRow(show *models.Show, entry *models.Entry) []string {
	primaryIssue := entry.PrimaryIssue
	subIssue := entry.SubIssue
	otherDetail := entry.OtherDetail
	severity := entry.Severity
	rootCause := entry.RootCause
	if entry.Status == models.StatusCompleted {
		primaryIssue, subIssue, otherDetail, severity, rootCause = "", "", "", "", ""
	}

	delay := ""
	if entry.DelaySec != nil {
		delay = strconv.FormatFloat(*entry.DelaySec, 'f', -1, 64)
	}

	return []string{
		show.ID,
		show.Date,
		show.Time,
		show.Label,
		strings.Join(show.Crew, "|"),
		show.LeadPilot,
		show.MonkeyLead,
		show.Notes,
		entry.ID,
		entry.UnitID,
		entry.Planned,
		entry.Launched,
		entry.Status,
		primaryIssue,
		subIssue,
		otherDetail,
		severity,
		rootCause,
		strings.Join(entry.Actions, "|"),
		entry.Operator,
		entry.BatteryID,
		delay,
		entry.CommandRx,
		entry.Notes,
	}
}

// MessageMap keys a row by the column names, for the webhook "message" block.
func MessageMap(row []string) map[string]string {
	out := make(map[string]string, len(columns))
	for i, name := range columns {
		if i < len(row) {
			out[name] = row[i]
		}
	}
	return out
}
