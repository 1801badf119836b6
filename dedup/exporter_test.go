package dedup

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func exportTestResult() *DeduplicationResult {
	date := time.Date(2022, time.September, 22, 0, 0, 0, 0, time.UTC)
	records := int64(9_800_000)
	master := CandidateEvent{
		ID:              "evt_1",
		Title:           "Optus cyber attack",
		EventDate:       &date,
		RecordsAffected: &records,
		VictimOrgName:   "Optus",
		DataSources:     []string{"reuters.com"},
		Confidence:      0.9,
	}
	return &DeduplicationResult{
		CanonicalEvents: []CandidateEvent{master},
		Groups: []MergeGroup{
			{
				Master:     master,
				Absorbed:   []CandidateEvent{{ID: "evt_2", Title: "Optus hack"}},
				Reason:     "Merged 1 duplicates: same entity and date (1)",
				Confidence: 0.87,
			},
		},
		Stats: Statistics{InputCount: 2, OutputCount: 1, GroupCount: 1, TotalMerges: 1},
	}
}

func TestResultExporter_JSON(t *testing.T) {
	exporter := NewResultExporter()
	filename := filepath.Join(t.TempDir(), "result.json")

	if err := exporter.ExportToJSON(exportTestResult(), filename); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	var decoded DeduplicationResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if len(decoded.CanonicalEvents) != 1 || decoded.CanonicalEvents[0].ID != "evt_1" {
		t.Errorf("Unexpected exported events: %+v", decoded.CanonicalEvents)
	}
}

func TestResultExporter_CSV(t *testing.T) {
	exporter := NewResultExporter()
	filename := filepath.Join(t.TempDir(), "result.csv")

	if err := exporter.ExportToCSV(exportTestResult(), filename); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header and 1 record, got %d rows", len(rows))
	}
	if rows[1][1] != "Optus cyber attack" {
		t.Errorf("Unexpected title cell %q", rows[1][1])
	}
	if rows[1][2] != "2022-09-22" {
		t.Errorf("Unexpected date cell %q", rows[1][2])
	}
}

func TestResultExporter_Excel(t *testing.T) {
	exporter := NewResultExporter()
	filename := filepath.Join(t.TempDir(), "result.xlsx")

	if err := exporter.ExportToExcel(exportTestResult(), filename); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Expected export file to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty excel file")
	}
}

func TestResultExporter_UnknownFormat(t *testing.T) {
	exporter := NewResultExporter()

	if err := exporter.Export(exportTestResult(), ExportFormat("xml"), "out.xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
