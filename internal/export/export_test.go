package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"droneops/showlog/internal/models"
)

func sampleShow() models.Show {
	delay := 4.5
	return models.Show{
		ID:         "show-1",
		Date:       "2024-07-04",
		Time:       "21:00",
		Label:      "Demo",
		Crew:       []string{"Alex", "Nazar"},
		LeadPilot:  "Alex",
		MonkeyLead: "Nazar",
		Notes:      "clear skies",
		Entries: []models.Entry{
			{
				ID:           "entry-1",
				UnitID:       "Drone-01",
				Planned:      "Yes",
				Launched:     "No",
				Status:       models.StatusAbort,
				PrimaryIssue: "GPS",
				SubIssue:     "Glonass drop",
				Severity:     "High",
				RootCause:    "Firmware",
				Actions:      []string{"Reboot", "Swap battery"},
				Operator:     "Alex",
				BatteryID:    "B-7",
				DelaySec:     &delay,
				CommandRx:    "Yes",
				Notes:        `said "hold", then comma, test`,
			},
		},
	}
}

func TestColumns_FixedSchema(t *testing.T) {
	cols := Columns()
	if len(cols) != 24 {
		t.Fatalf("Expected 24 columns, got %d", len(cols))
	}
	if cols[0] != "showId" || cols[12] != "status" || cols[13] != "primaryIssue" || cols[23] != "notes" {
		t.Errorf("Unexpected column order: %v", cols)
	}
}

func TestBuildRow_PipeJoinsAndDelay(t *testing.T) {
	show := sampleShow()
	row := BuildRow(&show, &show.Entries[0])

	if len(row) != 24 {
		t.Fatalf("Expected 24 values, got %d", len(row))
	}
	if row[4] != "Alex|Nazar" {
		t.Errorf("Expected pipe-joined crew, got %q", row[4])
	}
	if row[18] != "Reboot|Swap battery" {
		t.Errorf("Expected pipe-joined actions, got %q", row[18])
	}
	if row[21] != "4.5" {
		t.Errorf("Expected delay 4.5, got %q", row[21])
	}
	if row[13] != "GPS" {
		t.Errorf("Expected primary issue kept for aborted flight, got %q", row[13])
	}
}

func TestBuildRow_CompletedBlanksIssueFields(t *testing.T) {
	show := sampleShow()
	show.Entries[0].Status = models.StatusCompleted
	row := BuildRow(&show, &show.Entries[0])

	if row[12] != "Completed" {
		t.Errorf("Expected status Completed, got %q", row[12])
	}
	for _, i := range []int{13, 14, 15, 16, 17} {
		if row[i] != "" {
			t.Errorf("Expected column %d blanked for completed flight, got %q", i, row[i])
		}
	}
}

func TestCSVLine_MatchesRowColumnForColumn(t *testing.T) {
	show := sampleShow()
	row := BuildRow(&show, &show.Entries[0])
	line := CSVLine(row)

	parsed, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		t.Fatalf("Expected parseable CSV line, got %v", err)
	}
	if !reflect.DeepEqual(parsed, row) {
		t.Errorf("CSV round trip mismatch:\nrow: %v\ncsv: %v", row, parsed)
	}
	if !strings.Contains(line, `"said ""hold"", then comma, test"`) {
		t.Errorf("Expected RFC-4180 quoting of embedded quotes/commas, got %q", line)
	}
}

func TestWriteShowsCSV(t *testing.T) {
	show := sampleShow()
	show.Entries = append(show.Entries, models.Entry{ID: "entry-2", UnitID: "Drone-02", Operator: "Priya"})

	var buf bytes.Buffer
	if err := WriteShowsCSV(&buf, []models.Show{show}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Expected parseable export, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], Columns()) {
		t.Errorf("Expected header to equal the fixed columns, got %v", records[0])
	}
	if records[1][8] != "entry-1" || records[2][8] != "entry-2" {
		t.Errorf("Expected one row per entry in order, got %v / %v", records[1][8], records[2][8])
	}
}

func TestMessageMap(t *testing.T) {
	show := sampleShow()
	row := BuildRow(&show, &show.Entries[0])
	msg := MessageMap(row)

	if len(msg) != 24 {
		t.Fatalf("Expected 24 keys, got %d", len(msg))
	}
	if msg["showId"] != "show-1" || msg["operator"] != "Alex" || msg["status"] != "Abort" {
		t.Errorf("Unexpected message map: %v", msg)
	}
}
