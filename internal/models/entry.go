package models

import (
	"strings"
	"time"
)

// Entry is one unit's flight-attempt record inside a show. Planned, Launched
// and CommandRx are stored as canonical "Yes"/"No" strings; DelaySec is nil
// when no delay was recorded.
type Entry struct {
	ID           string   `json:"id"`
	TS           int64    `json:"ts"`
	UnitID       string   `json:"unitId"`
	Planned      string   `json:"planned"`
	Launched     string   `json:"launched"`
	Status       string   `json:"status"`
	PrimaryIssue string   `json:"primaryIssue"`
	SubIssue     string   `json:"subIssue"`
	OtherDetail  string   `json:"otherDetail"`
	Severity     string   `json:"severity"`
	RootCause    string   `json:"rootCause"`
	Actions      []string `json:"actions"`
	Operator     string   `json:"operator"`
	BatteryID    string   `json:"batteryId"`
	DelaySec     *float64 `json:"delaySec"`
	CommandRx    string   `json:"commandRx"`
	Notes        string   `json:"notes"`
}

// Entry status values.
const (
	StatusCompleted = "Completed"
	StatusNoLaunch  = "No-launch"
	StatusAbort     = "Abort"
)

// Normalize trims free-text fields, canonicalizes the Yes/No flags and the
// actions list, and clamps a negative delay to nil.
func (e *Entry) Normalize() {
	e.ID = strings.TrimSpace(e.ID)
	e.UnitID = strings.TrimSpace(e.UnitID)
	e.Planned = YesNo(e.Planned)
	e.Launched = YesNo(e.Launched)
	e.Status = strings.TrimSpace(e.Status)
	e.PrimaryIssue = strings.TrimSpace(e.PrimaryIssue)
	e.SubIssue = strings.TrimSpace(e.SubIssue)
	e.OtherDetail = strings.TrimSpace(e.OtherDetail)
	e.Severity = strings.TrimSpace(e.Severity)
	e.RootCause = strings.TrimSpace(e.RootCause)
	e.Actions = NormalizeNames(e.Actions, false)
	e.Operator = strings.TrimSpace(e.Operator)
	e.BatteryID = strings.TrimSpace(e.BatteryID)
	e.CommandRx = YesNo(e.CommandRx)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.DelaySec != nil && *e.DelaySec < 0 {
		e.DelaySec = nil
	}
}

// Stamp assigns id and timestamp for a newly created entry.
func (e *Entry) Stamp(now time.Time) {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.TS == 0 {
		e.TS = now.UnixMilli()
	}
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() Entry {
	out := *e
	out.Actions = append([]string(nil), e.Actions...)
	if e.DelaySec != nil {
		v := *e.DelaySec
		out.DelaySec = &v
	}
	return out
}

// EntryPatch is a partial update of an entry; nil means "leave unchanged".
type EntryPatch struct {
	TS           *int64    `json:"ts"`
	UnitID       *string   `json:"unitId"`
	Planned      *string   `json:"planned"`
	Launched     *string   `json:"launched"`
	Status       *string   `json:"status"`
	PrimaryIssue *string   `json:"primaryIssue"`
	SubIssue     *string   `json:"subIssue"`
	OtherDetail  *string   `json:"otherDetail"`
	Severity     *string   `json:"severity"`
	RootCause    *string   `json:"rootCause"`
	Actions      *[]string `json:"actions"`
	Operator     *string   `json:"operator"`
	BatteryID    *string   `json:"batteryId"`
	DelaySec     *float64  `json:"delaySec"`
	CommandRx    *string   `json:"commandRx"`
	Notes        *string   `json:"notes"`
}

// Apply merges the patch into the entry. The result still needs Normalize.
func (p EntryPatch) Apply(e *Entry) {
	if p.TS != nil {
		e.TS = *p.TS
	}
	if p.UnitID != nil {
		e.UnitID = *p.UnitID
	}
	if p.Planned != nil {
		e.Planned = *p.Planned
	}
	if p.Launched != nil {
		e.Launched = *p.Launched
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.PrimaryIssue != nil {
		e.PrimaryIssue = *p.PrimaryIssue
	}
	if p.SubIssue != nil {
		e.SubIssue = *p.SubIssue
	}
	if p.OtherDetail != nil {
		e.OtherDetail = *p.OtherDetail
	}
	if p.Severity != nil {
		e.Severity = *p.Severity
	}
	if p.RootCause != nil {
		e.RootCause = *p.RootCause
	}
	if p.Actions != nil {
		e.Actions = *p.Actions
	}
	if p.Operator != nil {
		e.Operator = *p.Operator
	}
	if p.BatteryID != nil {
		e.BatteryID = *p.BatteryID
	}
	if p.DelaySec != nil {
		e.DelaySec = p.DelaySec
	}
	if p.CommandRx != nil {
		e.CommandRx = *p.CommandRx
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}
