package store

import (
	"sort"
	"time"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/models"
)

// DueForArchive selects the active shows that must transition to archived at
// the given instant. Grouping is by calendar date: once the earliest
// createdAt in a date group is at least 12 hours old, the entire group is
// archived together, including same-day shows created later.
//
// The result is ordered by date, then createdAt, so batch indices are
// deterministic.
func DueForArchive(shows []models.Show, now time.Time) []models.Show {
	groups := make(map[string][]models.Show)
	for _, s := range shows {
		groups[s.Date] = append(groups[s.Date], s)
	}

	nowMs := now.UnixMilli()
	cutoff := constants.ArchiveAfter.Milliseconds()

	due := make([]models.Show, 0)
	for _, group := range groups {
		earliest := group[0].CreatedAt
		for _, s := range group[1:] {
			if s.CreatedAt < earliest {
				earliest = s.CreatedAt
			}
		}
		if nowMs-earliest >= cutoff {
			due = append(due, group...)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Date != due[j].Date {
			return due[i].Date < due[j].Date
		}
		return due[i].CreatedAt < due[j].CreatedAt
	})
	return due
}

// DueForPurge selects the ids of archived shows whose retention window has
// closed: createdAt plus two calendar months (not a fixed 60 days) is at or
// before now.
func DueForPurge(archived []models.Show, now time.Time) []string {
	var ids []string
	for _, s := range archived {
		expiry := time.UnixMilli(s.CreatedAt).AddDate(0, constants.RetentionMonths, 0)
		if !now.Before(expiry) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// CountOnDate counts active shows sharing a date, ignoring excludeID (the
// record being updated). Used to enforce the per-date show limit.
func CountOnDate(shows []models.Show, date, excludeID string) int {
	n := 0
	for _, s := range shows {
		if s.ID != excludeID && s.Date == date {
			n++
		}
	}
	return n
}
