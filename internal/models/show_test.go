package models

import (
	"testing"
	"time"

	"droneops/showlog/internal/constants"
)

func validShow() Show {
	return Show{
		Date:       "2024-07-04",
		Time:       "21:00",
		Label:      "Demo",
		LeadPilot:  "Alex",
		MonkeyLead: "Nazar",
	}
}

func TestShowValidate_RequiredFields(t *testing.T) {
	s := validShow()
	s.Normalize()
	if err := s.Validate(); err != nil {
		t.Fatalf("Expected valid show, got %v", err)
	}

	missing := validShow()
	missing.LeadPilot = "   "
	missing.Normalize()
	err := missing.Validate()
	if err == nil {
		t.Fatal("Expected validation error for blank lead pilot")
	}
	if !IsValidation(err) {
		t.Errorf("Expected ValidationError, got %T", err)
	}
	if err.Error() != constants.MsgShowFieldsRequired {
		t.Errorf("Expected contract message, got %q", err.Error())
	}
}

func TestShowStamp_AssignsOnlyMissing(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	s := validShow()
	s.Stamp(now)
	if s.ID == "" {
		t.Error("Expected generated id")
	}
	if s.CreatedAt != now.UnixMilli() || s.UpdatedAt != now.UnixMilli() {
		t.Errorf("Expected timestamps %d, got createdAt=%d updatedAt=%d",
			now.UnixMilli(), s.CreatedAt, s.UpdatedAt)
	}

	pre := validShow()
	pre.ID = "fixed-id"
	pre.CreatedAt = 42
	pre.Stamp(now)
	if pre.ID != "fixed-id" || pre.CreatedAt != 42 {
		t.Errorf("Expected supplied id/createdAt preserved, got %q/%d", pre.ID, pre.CreatedAt)
	}
}

func TestShowHasOperator_CaseInsensitive(t *testing.T) {
	s := validShow()
	s.Entries = []Entry{{ID: "e1", Operator: "Alex"}}

	if !s.HasOperator("ALEX", "") {
		t.Error("Expected operator match to be case-insensitive")
	}
	if s.HasOperator("ALEX", "e1") {
		t.Error("Expected excluded entry to be ignored")
	}
	if s.HasOperator("Jordan", "") {
		t.Error("Expected no match for unknown operator")
	}
}

func TestShowPatchApply(t *testing.T) {
	s := validShow()
	s.Notes = "old"

	label := "Updated"
	crew := []string{"Sam", "sam", " Priya "}
	p := ShowPatch{Label: &label, Crew: &crew}
	p.Apply(&s)
	s.Normalize()

	if s.Label != "Updated" {
		t.Errorf("Expected patched label, got %q", s.Label)
	}
	if s.Notes != "old" {
		t.Errorf("Expected untouched notes, got %q", s.Notes)
	}
	if len(s.Crew) != 2 {
		t.Errorf("Expected deduped crew, got %v", s.Crew)
	}
}

func TestShowClone_Isolated(t *testing.T) {
	s := validShow()
	delay := 4.5
	s.Entries = []Entry{{ID: "e1", Operator: "Alex", Actions: []string{"Reboot"}, DelaySec: &delay}}

	c := s.Clone()
	c.Entries[0].Operator = "Changed"
	c.Entries[0].Actions[0] = "Changed"
	*c.Entries[0].DelaySec = 99

	if s.Entries[0].Operator != "Alex" || s.Entries[0].Actions[0] != "Reboot" || *s.Entries[0].DelaySec != 4.5 {
		t.Error("Expected clone to be fully isolated from the original")
	}
}

func TestEntryNormalize(t *testing.T) {
	neg := -3.0
	e := Entry{
		UnitID:    " Drone-01 ",
		Planned:   "yes",
		Launched:  "nope",
		CommandRx: "TRUE",
		Actions:   []string{"Reboot", "reboot", ""},
		DelaySec:  &neg,
	}
	e.Normalize()

	if e.UnitID != "Drone-01" {
		t.Errorf("Expected trimmed unit id, got %q", e.UnitID)
	}
	if e.Planned != "Yes" || e.Launched != "No" || e.CommandRx != "Yes" {
		t.Errorf("Expected canonical flags, got %q/%q/%q", e.Planned, e.Launched, e.CommandRx)
	}
	if len(e.Actions) != 1 {
		t.Errorf("Expected deduped actions, got %v", e.Actions)
	}
	if e.DelaySec != nil {
		t.Error("Expected negative delay clamped to nil")
	}
}
