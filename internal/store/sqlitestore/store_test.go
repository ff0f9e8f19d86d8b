package sqlitestore

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"droneops/showlog/internal/config"
	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/models"
	gormModels "droneops/showlog/internal/models/gorm"
	"droneops/showlog/internal/webhook"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type archivedCall struct {
	showID      string
	totalShows  int
	showIndex   int
	triggeredAt int64
	entryCount  int
}

type captureDispatcher struct {
	calls []archivedCall
}

func (d *captureDispatcher) DispatchShowArchived(ctx context.Context, show *models.Show, totalShows, showIndex int, triggeredAt int64) webhook.Result {
	d.calls = append(d.calls, archivedCall{
		showID:      show.ID,
		totalShows:  totalShows,
		showIndex:   showIndex,
		triggeredAt: triggeredAt,
		entryCount:  len(show.Entries),
	})
	return webhook.Result{Success: true, Dispatched: len(show.Entries)}
}

func newTestStore(t *testing.T, clk *fakeClock, d *captureDispatcher) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "showlog.db")
	return newTestStoreAt(t, path, clk, d)
}

func newTestStoreAt(t *testing.T, path string, clk *fakeClock, d *captureDispatcher) *Store {
	t.Helper()
	s := New(config.SQLConfig{Filename: path}, d, clk.Now, metrics.Default())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Expected init to succeed, got %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func showInput(date, label string) models.Show {
	return models.Show{
		Date:       date,
		Time:       "21:00",
		Label:      label,
		LeadPilot:  "Alex",
		MonkeyLead: "Nazar",
		Crew:       []string{"Alex", "Nazar"},
	}
}

func TestCreateShow_RoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	created, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if created.ID == "" || created.CreatedAt == 0 || created.UpdatedAt == 0 {
		t.Fatalf("Expected assigned id and timestamps, got %+v", created)
	}

	got, err := s.GetShow(ctx, created.ID)
	if err != nil {
		t.Fatalf("Expected get to succeed, got %v", err)
	}
	if got == nil {
		t.Fatal("Expected show to be found")
	}
	if !reflect.DeepEqual(*created, *got) {
		t.Errorf("Round trip mismatch:\ncreated: %+v\ngot:     %+v", created, got)
	}
}

func TestCreateShow_Validation(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})

	bad := showInput("2024-07-04", "Demo")
	bad.LeadPilot = "  "
	_, err := s.CreateShow(context.Background(), bad)
	if err == nil || !models.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if err.Error() != constants.MsgShowFieldsRequired {
		t.Errorf("Expected contract message, got %q", err.Error())
	}
}

func TestCreateShow_DailyLimit(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	for i := 0; i < constants.MaxShowsPerDate; i++ {
		if _, err := s.CreateShow(ctx, showInput("2024-07-04", "Show")); err != nil {
			t.Fatalf("Expected show %d to succeed, got %v", i+1, err)
		}
	}

	_, err := s.CreateShow(ctx, showInput("2024-07-04", "One too many"))
	if err == nil || err.Error() != constants.MsgDailyShowLimit {
		t.Fatalf("Expected daily limit error on the 6th show, got %v", err)
	}

	// A different date is unaffected.
	if _, err := s.CreateShow(ctx, showInput("2024-07-05", "Next day")); err != nil {
		t.Errorf("Expected other dates unaffected, got %v", err)
	}
}

func TestUpdateShow_NotFoundAndLimit(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	got, err := s.UpdateShow(ctx, "missing", models.ShowPatch{})
	if err != nil || got != nil {
		t.Fatalf("Expected nil,nil for missing show, got %v, %v", got, err)
	}

	for i := 0; i < constants.MaxShowsPerDate; i++ {
		if _, err := s.CreateShow(ctx, showInput("2024-07-04", "Show")); err != nil {
			t.Fatal(err)
		}
	}
	other, err := s.CreateShow(ctx, showInput("2024-07-05", "Mover"))
	if err != nil {
		t.Fatal(err)
	}

	date := "2024-07-04"
	_, err = s.UpdateShow(ctx, other.ID, models.ShowPatch{Date: &date})
	if err == nil || err.Error() != constants.MsgDailyShowLimit {
		t.Fatalf("Expected limit enforced on update, got %v", err)
	}

	// Updating a show already on the full date must not count itself.
	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var onDate *models.Show
	for i := range shows {
		if shows[i].Date == date {
			onDate = &shows[i]
			break
		}
	}
	label := "Renamed"
	clk.Advance(time.Minute)
	updated, err := s.UpdateShow(ctx, onDate.ID, models.ShowPatch{Label: &label})
	if err != nil {
		t.Fatalf("Expected self-exclusion from the limit, got %v", err)
	}
	if updated.Label != "Renamed" {
		t.Errorf("Expected patched label, got %q", updated.Label)
	}
	if updated.UpdatedAt <= onDate.UpdatedAt {
		t.Errorf("Expected updatedAt bump, got %d -> %d", onDate.UpdatedAt, updated.UpdatedAt)
	}
}

func TestEntries_OperatorUniqueness(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	show, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatal(err)
	}

	_, first, err := s.AddEntry(ctx, show.ID, models.Entry{UnitID: "Drone-01", Operator: "Alex", Status: models.StatusCompleted})
	if err != nil {
		t.Fatalf("Expected first entry to succeed, got %v", err)
	}

	_, _, err = s.AddEntry(ctx, show.ID, models.Entry{UnitID: "Drone-02", Operator: "ALEX"})
	if err == nil || err.Error() != constants.MsgDuplicateOperator {
		t.Fatalf("Expected duplicate operator rejected case-insensitively, got %v", err)
	}

	_, second, err := s.AddEntry(ctx, show.ID, models.Entry{UnitID: "Drone-02", Operator: "Priya"})
	if err != nil {
		t.Fatal(err)
	}

	// Updating the second entry onto the first operator must fail, while a
	// self-preserving update passes.
	op := "alex"
	_, _, err = s.UpdateEntry(ctx, show.ID, second.ID, models.EntryPatch{Operator: &op})
	if err == nil || err.Error() != constants.MsgDuplicateOperator {
		t.Fatalf("Expected duplicate operator rejected on update, got %v", err)
	}

	keep := "Alex"
	status := models.StatusAbort
	_, updated, err := s.UpdateEntry(ctx, show.ID, first.ID, models.EntryPatch{Operator: &keep, Status: &status})
	if err != nil {
		t.Fatalf("Expected self-update to pass uniqueness, got %v", err)
	}
	if updated.Status != models.StatusAbort {
		t.Errorf("Expected patched status, got %q", updated.Status)
	}
}

func TestDeleteEntry(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	show, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatal(err)
	}
	_, entry, err := s.AddEntry(ctx, show.ID, models.Entry{UnitID: "Drone-01", Operator: "Alex"})
	if err != nil {
		t.Fatal(err)
	}

	updatedShow, removed, err := s.DeleteEntry(ctx, show.ID, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed == nil || removed.ID != entry.ID {
		t.Fatalf("Expected removed entry returned, got %+v", removed)
	}
	if len(updatedShow.Entries) != 0 {
		t.Errorf("Expected no entries left, got %d", len(updatedShow.Entries))
	}

	_, missing, err := s.DeleteEntry(ctx, show.ID, entry.ID)
	if err != nil || missing != nil {
		t.Errorf("Expected nil,nil for missing entry, got %v, %v", missing, err)
	}
}

func TestArchiveShowNow_SnapshotIsolated(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	show, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.AddEntry(ctx, show.ID, models.Entry{UnitID: "Drone-01", Operator: "Alex"}); err != nil {
		t.Fatal(err)
	}

	archived, err := s.ArchiveShowNow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if archived.ArchivedAt == nil || archived.DeletedAt != nil {
		t.Fatalf("Expected archivedAt without deletedAt, got %+v", archived)
	}

	if got, _ := s.GetShow(ctx, show.ID); got != nil {
		t.Error("Expected show removed from the active table")
	}

	fromArchive, err := s.GetArchivedShow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fromArchive == nil || len(fromArchive.Entries) != 1 || fromArchive.Entries[0].Operator != "Alex" {
		t.Errorf("Expected archived snapshot to keep its entries, got %+v", fromArchive)
	}
}

func TestDeleteShow_SetsDeletedAt(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	d := &captureDispatcher{}
	s := newTestStore(t, clk, d)
	ctx := context.Background()

	show, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatal(err)
	}

	before := len(d.calls)
	deleted, err := s.DeleteShow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.ArchivedAt == nil || deleted.DeletedAt == nil {
		t.Fatalf("Expected both archive timestamps set, got %+v", deleted)
	}
	if len(d.calls) != before {
		t.Error("Expected deleteShow not to dispatch show.archived")
	}

	missing, err := s.DeleteShow(ctx, show.ID)
	if err != nil || missing != nil {
		t.Errorf("Expected nil,nil for second delete, got %v, %v", missing, err)
	}
}

func TestSweep_TwelveHourBoundary(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	d := &captureDispatcher{}
	s := newTestStore(t, clk, d)
	ctx := context.Background()

	show, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo"))
	if err != nil {
		t.Fatal(err)
	}

	clk.Advance(12*time.Hour - time.Millisecond)
	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 1 {
		t.Fatalf("Expected show still active 1ms short of 12h, got %d active", len(shows))
	}

	clk.Advance(time.Millisecond)
	shows, err = s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 0 {
		t.Fatalf("Expected show archived at exactly 12h, got %d active", len(shows))
	}

	archived, err := s.GetArchivedShow(ctx, show.ID)
	if err != nil || archived == nil {
		t.Fatalf("Expected archive record, got %v, %v", archived, err)
	}
	if archived.DeletedAt != nil {
		t.Error("Expected automatic archive without deletedAt")
	}

	if len(d.calls) != 1 {
		t.Fatalf("Expected one show.archived dispatch, got %d", len(d.calls))
	}
	if d.calls[0].showID != show.ID || d.calls[0].totalShows != 1 || d.calls[0].showIndex != 0 {
		t.Errorf("Unexpected batch metadata: %+v", d.calls[0])
	}
}

func TestSweep_GroupArchivesTogether(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	d := &captureDispatcher{}
	s := newTestStore(t, clk, d)
	ctx := context.Background()

	// Seed rows directly so the second show can be 13 hours younger than
	// the first without the insert-path sweep archiving the first early.
	early := showInput("2024-01-01", "Early")
	early.Stamp(clk.Now())
	if err := s.saveShow(ctx, &early); err != nil {
		t.Fatal(err)
	}

	clk.Advance(13 * time.Hour)
	late := showInput("2024-01-01", "Late")
	late.Stamp(clk.Now())
	if err := s.saveShow(ctx, &late); err != nil {
		t.Fatal(err)
	}

	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 0 {
		t.Fatalf("Expected the whole date group archived together, got %d active", len(shows))
	}

	if len(d.calls) != 2 {
		t.Fatalf("Expected 2 dispatches, got %d", len(d.calls))
	}
	if d.calls[0].showID != early.ID || d.calls[1].showID != late.ID {
		t.Errorf("Expected createdAt dispatch order, got %+v", d.calls)
	}
	if d.calls[0].totalShows != 2 || d.calls[1].totalShows != 2 ||
		d.calls[0].showIndex != 0 || d.calls[1].showIndex != 1 {
		t.Errorf("Unexpected batch metadata: %+v", d.calls)
	}
	if d.calls[0].triggeredAt != d.calls[1].triggeredAt {
		t.Error("Expected a shared triggeredAt across the batch")
	}
}

func TestSweep_Idempotent(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	d := &captureDispatcher{}
	s := newTestStore(t, clk, d)
	ctx := context.Background()

	if _, err := s.CreateShow(ctx, showInput("2024-07-04", "Demo")); err != nil {
		t.Fatal(err)
	}

	clk.Advance(13 * time.Hour)
	if _, err := s.ListShows(ctx); err != nil {
		t.Fatal(err)
	}
	if len(d.calls) != 1 {
		t.Fatalf("Expected one dispatch after the first sweep, got %d", len(d.calls))
	}

	if _, err := s.ListShows(ctx); err != nil {
		t.Fatal(err)
	}
	archived, err := s.ListArchivedShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 {
		t.Errorf("Expected a single archive record, got %d", len(archived))
	}
	if len(d.calls) != 1 {
		t.Errorf("Expected no further dispatches from a repeat sweep, got %d", len(d.calls))
	}
}

func TestRetention_PurgeAfterTwoCalendarMonths(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	// Backdate createdAt to one day inside the retention window.
	show := showInput("2024-01-15", "Old")
	show.CreatedAt = clk.Now().AddDate(0, -2, 1).UnixMilli()
	created, err := s.CreateShow(ctx, show)
	if err != nil {
		t.Fatal(err)
	}

	// The backdated group is past 12h, so it is auto-archived but kept.
	archived, err := s.ListArchivedShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 {
		t.Fatalf("Expected archived but unpurged show, got %d records", len(archived))
	}

	clk.Advance(24 * time.Hour)
	archived, err = s.ListArchivedShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 0 {
		t.Errorf("Expected purge at the 2-month boundary, got %d records", len(archived))
	}
	if got, _ := s.GetArchivedShow(ctx, created.ID); got != nil {
		t.Error("Expected purged record unreadable")
	}
}

func TestSnapshot_SurvivesReopen(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	path := filepath.Join(t.TempDir(), "showlog.db")

	s := newTestStoreAt(t, path, clk, &captureDispatcher{})
	ctx := context.Background()

	created, err := s.CreateShow(ctx, showInput("2024-07-04", "Persisted"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.AddEntry(ctx, created.ID, models.Entry{UnitID: "Drone-01", Operator: "Alex"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := newTestStoreAt(t, path, clk, &captureDispatcher{})
	got, err := reopened.GetShow(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Label != "Persisted" || len(got.Entries) != 1 {
		t.Errorf("Expected snapshot reload to restore the show, got %+v", got)
	}

	staff, err := reopened.GetStaff(ctx)
	if err != nil || staff == nil || len(staff.Pilots) == 0 {
		t.Errorf("Expected staff preserved across reopen, got %+v, %v", staff, err)
	}
}

func TestMalformedDocIsSkipped(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	good, err := s.CreateShow(ctx, showInput("2024-07-04", "Good"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.db.Exec(
		"INSERT INTO shows (id, updated_at, doc) VALUES (?, ?, ?)",
		"corrupt", clk.Now().UnixMilli(), "{not json",
	).Error; err != nil {
		t.Fatal(err)
	}

	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatalf("Expected corrupted rows to be skipped, got %v", err)
	}
	if len(shows) != 1 || shows[0].ID != good.ID {
		t.Errorf("Expected only the intact show, got %+v", shows)
	}
	if got, err := s.GetShow(ctx, "corrupt"); err != nil || got != nil {
		t.Errorf("Expected corrupt row treated as absent, got %v, %v", got, err)
	}
}

func TestStaff_ReplaceNormalizes(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	seeded, err := s.GetStaff(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeded.Crew) == 0 || len(seeded.Pilots) == 0 || len(seeded.MonkeyLeads) == 0 {
		t.Fatalf("Expected default staff seeded, got %+v", seeded)
	}

	replaced, err := s.ReplaceStaff(ctx, models.Staff{
		Crew:        []string{"zoe", "Zoe", " Ben "},
		Pilots:      []string{"Cara"},
		MonkeyLeads: []string{"Dan"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(replaced.Crew, []string{"Ben", "zoe"}) {
		t.Errorf("Expected deduped sorted crew, got %v", replaced.Crew)
	}

	got, err := s.GetStaff(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, replaced) {
		t.Errorf("Expected replacement persisted, got %+v", got)
	}
}

func TestListShows_NewestUpdatedFirst(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clk, &captureDispatcher{})
	ctx := context.Background()

	a, err := s.CreateShow(ctx, showInput("2024-07-04", "A"))
	if err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	if _, err := s.CreateShow(ctx, showInput("2024-07-04", "B")); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	label := "A touched"
	if _, err := s.UpdateShow(ctx, a.ID, models.ShowPatch{Label: &label}); err != nil {
		t.Fatal(err)
	}

	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 2 || shows[0].Label != "A touched" || shows[1].Label != "B" {
		t.Errorf("Expected newest updatedAt first, got %+v", shows)
	}

	// The envelope column must mirror the document's epoch-ms updatedAt; the
	// ORM must not stamp its own wall-clock value over it on the upsert path.
	var row gormModels.ShowRow
	if err := s.db.Where("id = ?", a.ID).First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.UpdatedAt != shows[0].UpdatedAt {
		t.Errorf("Expected envelope updated_at %d, got %d", shows[0].UpdatedAt, row.UpdatedAt)
	}
}
