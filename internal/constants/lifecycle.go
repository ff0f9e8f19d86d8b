package constants

import "time"

const (
	// MaxShowsPerDate caps how many shows may share one calendar date.
	MaxShowsPerDate = 5

	// ArchiveAfter is how old the earliest show of a date group must be
	// before the whole group is archived.
	ArchiveAfter = 12 * time.Hour

	// RetentionMonths is the calendar-month retention window for archived
	// shows, counted from the show's createdAt.
	RetentionMonths = 2
)

// Default staff option pools seeded on first init.
var (
	DefaultCrew        = []string{"Alex", "Nazar", "Priya", "Sam"}
	DefaultPilots      = []string{"Alex", "Jordan", "Priya"}
	DefaultMonkeyLeads = []string{"Nazar", "Sam"}
)
