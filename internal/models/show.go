package models

import (
	"strings"
	"time"

	"droneops/showlog/internal/constants"

	"github.com/google/uuid"
)

// Show is one scheduled performance: the container for flight-attempt
// entries. Timestamps are epoch milliseconds; ArchivedAt and DeletedAt stay
// nil while the show is active. The JSON shape is identical across both
// storage backends.
type Show struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Label      string   `json:"label"`
	Crew       []string `json:"crew"`
	LeadPilot  string   `json:"leadPilot"`
	MonkeyLead string   `json:"monkeyLead"`
	Notes      string   `json:"notes"`
	Entries    []Entry  `json:"entries"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
	ArchivedAt *int64   `json:"archivedAt"`
	DeletedAt  *int64   `json:"deletedAt"`
}

// NewID returns a fresh opaque identifier for shows and entries.
func NewID() string {
	return uuid.NewString()
}

// Normalize trims header fields and canonicalizes the crew list (input order
// preserved). Entries are normalized individually.
func (s *Show) Normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Date = strings.TrimSpace(s.Date)
	s.Time = strings.TrimSpace(s.Time)
	s.Label = strings.TrimSpace(s.Label)
	s.LeadPilot = strings.TrimSpace(s.LeadPilot)
	s.MonkeyLead = strings.TrimSpace(s.MonkeyLead)
	s.Notes = strings.TrimSpace(s.Notes)
	s.Crew = NormalizeNames(s.Crew, false)
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	for i := range s.Entries {
		s.Entries[i].Normalize()
	}
}

// Validate enforces the required header fields. Must be called after
// Normalize.
func (s *Show) Validate() error {
	if s.Date == "" || s.Time == "" || s.Label == "" || s.LeadPilot == "" || s.MonkeyLead == "" {
		return NewValidationError(constants.MsgShowFieldsRequired)
	}
	return nil
}

// Stamp assigns id and timestamps for a newly created show, leaving values
// already supplied by the caller untouched.
func (s *Show) Stamp(now time.Time) {
	ms := now.UnixMilli()
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = ms
	}
	if s.UpdatedAt == 0 {
		s.UpdatedAt = ms
	}
}

// HasOperator reports whether the show already holds an entry for the given
// operator (case-insensitive), ignoring the entry with excludeEntryID.
func (s *Show) HasOperator(operator, excludeEntryID string) bool {
	op := strings.ToLower(strings.TrimSpace(operator))
	if op == "" {
		return false
	}
	for _, e := range s.Entries {
		if e.ID == excludeEntryID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(e.Operator)) == op {
			return true
		}
	}
	return false
}

// FindEntry returns the index of the entry with the given id, or -1.
func (s *Show) FindEntry(entryID string) int {
	for i := range s.Entries {
		if s.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy, so archived snapshots are isolated from later
// mutations of the active record.
func (s *Show) Clone() Show {
	out := *s
	out.Crew = append([]string(nil), s.Crew...)
	out.Entries = make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		out.Entries[i] = e.Clone()
	}
	if s.ArchivedAt != nil {
		v := *s.ArchivedAt
		out.ArchivedAt = &v
	}
	if s.DeletedAt != nil {
		v := *s.DeletedAt
		out.DeletedAt = &v
	}
	return out
}

// ShowPatch is a partial update of show header fields; nil means "leave
// unchanged". Entries are managed through the entry operations only.
type ShowPatch struct {
	Date       *string   `json:"date"`
	Time       *string   `json:"time"`
	Label      *string   `json:"label"`
	Crew       *[]string `json:"crew"`
	LeadPilot  *string   `json:"leadPilot"`
	MonkeyLead *string   `json:"monkeyLead"`
	Notes      *string   `json:"notes"`
}

// Apply merges the patch into the show. The result still needs Normalize and
// Validate.
func (p ShowPatch) Apply(s *Show) {
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.Time != nil {
		s.Time = *p.Time
	}
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.Crew != nil {
		s.Crew = *p.Crew
	}
	if p.LeadPilot != nil {
		s.LeadPilot = *p.LeadPilot
	}
	if p.MonkeyLead != nil {
		s.MonkeyLead = *p.MonkeyLead
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
}
