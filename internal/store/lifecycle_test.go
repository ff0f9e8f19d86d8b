package store

import (
	"testing"
	"time"

	"droneops/showlog/internal/models"
)

func msAt(t time.Time) int64 { return t.UnixMilli() }

func TestDueForArchive_TwelveHourBoundary(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	exactly := []models.Show{{ID: "a", Date: "2024-01-01", CreatedAt: msAt(now.Add(-12 * time.Hour))}}
	if due := DueForArchive(exactly, now); len(due) != 1 {
		t.Errorf("Expected show exactly 12h old to be archived, got %d", len(due))
	}

	short := []models.Show{{ID: "a", Date: "2024-01-01", CreatedAt: msAt(now.Add(-12*time.Hour + time.Millisecond))}}
	if due := DueForArchive(short, now); len(due) != 0 {
		t.Errorf("Expected show 1ms short of 12h to stay active, got %d", len(due))
	}
}

func TestDueForArchive_GroupArchivesTogether(t *testing.T) {
	now := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	first := now.Add(-13 * time.Hour)

	shows := []models.Show{
		{ID: "late", Date: "2024-01-01", CreatedAt: msAt(now)}, // created just now
		{ID: "early", Date: "2024-01-01", CreatedAt: msAt(first)},
		{ID: "other", Date: "2024-01-02", CreatedAt: msAt(now)},
	}

	due := DueForArchive(shows, now)
	if len(due) != 2 {
		t.Fatalf("Expected the whole date group archived, got %d", len(due))
	}
	if due[0].ID != "early" || due[1].ID != "late" {
		t.Errorf("Expected deterministic createdAt order, got %s, %s", due[0].ID, due[1].ID)
	}
}

func TestDueForPurge_CalendarMonthBoundary(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	show := models.Show{ID: "a", CreatedAt: msAt(created)}

	atBoundary := created.AddDate(0, 2, 0)
	if ids := DueForPurge([]models.Show{show}, atBoundary); len(ids) != 1 {
		t.Errorf("Expected purge exactly 2 calendar months after createdAt, got %v", ids)
	}

	dayShort := atBoundary.AddDate(0, 0, -1)
	if ids := DueForPurge([]models.Show{show}, dayShort); len(ids) != 0 {
		t.Errorf("Expected no purge one day short of the window, got %v", ids)
	}
}

func TestDueForPurge_MonthLengthVariance(t *testing.T) {
	// Dec 31 + 2 calendar months normalizes across short February.
	created := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	show := models.Show{ID: "a", CreatedAt: msAt(created)}

	expiry := created.AddDate(0, 2, 0) // 2024-03-02 via Go's normalization
	if ids := DueForPurge([]models.Show{show}, expiry.Add(-time.Hour)); len(ids) != 0 {
		t.Errorf("Expected no purge before the normalized expiry, got %v", ids)
	}
	if ids := DueForPurge([]models.Show{show}, expiry); len(ids) != 1 {
		t.Errorf("Expected purge at the normalized expiry, got %v", ids)
	}
}

func TestCountOnDate(t *testing.T) {
	shows := []models.Show{
		{ID: "a", Date: "2024-01-01"},
		{ID: "b", Date: "2024-01-01"},
		{ID: "c", Date: "2024-01-02"},
	}
	if n := CountOnDate(shows, "2024-01-01", ""); n != 2 {
		t.Errorf("Expected 2, got %d", n)
	}
	if n := CountOnDate(shows, "2024-01-01", "a"); n != 1 {
		t.Errorf("Expected exclusion of the updated record, got %d", n)
	}
}
