package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"video-tracker/constant"
	"video-tracker/entities"
)

func exportFixture() []*entities.ReportRow {
	enrolment := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []*entities.ReportRow{
		{
			WatchRecord: entities.WatchRecord{
				ID:              2,
				UserID:          7,
				VideoID:         "intro_4091",
				SessionID:       "42",
				SessionName:     "Safety, Part <1>",
				Percent:         100,
				CurrentDuration: "00:10:00",
				FullDuration:    "00:10:00",
				AssessmentTaken: true,
				EnrolmentDate:   &enrolment,
				Status:          constant.WatchStatusOverdue,
				LastWatched:     time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
				CreatedAt:       time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC),
			},
			UserLogin: "jdoe",
			UserEmail: "jdoe@example.com",
		},
		{
			WatchRecord: entities.WatchRecord{
				ID:              1,
				UserID:          8,
				VideoID:         "a_0293",
				SessionID:       "intro",
				SessionName:     "Onboarding",
				Percent:         40,
				CurrentDuration: "00:04:00",
				FullDuration:    "00:10:00",
				Status:          constant.WatchStatusInProgress,
				LastWatched:     time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
				CreatedAt:       time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			},
		},
	}
}

func writeExport(t *testing.T, format constant.ExportFormat, rows []*entities.ReportRow) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewExportWriter(format, &buf)
	if err := w.Begin(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), int64(len(rows))); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, row := range rows {
		if err := w.Row(row); err != nil {
			t.Fatalf("Row: %v", err)
		}
	}
	if err := w.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	return buf.String()
}

func TestCSVExport(t *testing.T) {
	out := writeExport(t, constant.ExportFormatCSV, exportFixture())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(records))
	}
	for i, rec := range records {
		if len(rec) != len(ExportColumns) {
			t.Fatalf("row %d: want %d fields got %d", i, len(ExportColumns), len(rec))
		}
	}
	if strings.Join(records[0], "|") != strings.Join(ExportColumns, "|") {
		t.Fatalf("header: got %v", records[0])
	}

	first := records[1]
	if first[6] != "Safety, Part <1>" || first[8] != "Overdue" || first[9] != "Yes" {
		t.Fatalf("first row: got %v", first)
	}
	if first[12] != "2025-03-01 09:00:00" || first[13] != "2025-03-10 12:00:00" {
		t.Fatalf("first row dates: got %v", first)
	}

	second := records[2]
	if second[2] != "" || second[9] != "No" || second[12] != "N/A" {
		t.Fatalf("second row: got %v", second)
	}
}

func TestJSONExport(t *testing.T) {
	out := writeExport(t, constant.ExportFormatJSON, exportFixture())

	var doc struct {
		ExportDate   string                   `json:"exportDate"`
		TotalRecords int                      `json:"totalRecords"`
		Data         []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("json parse: %v\n%s", err, out)
	}
	if doc.TotalRecords != 2 || len(doc.Data) != 2 {
		t.Fatalf("totals: want 2/2 got %d/%d", doc.TotalRecords, len(doc.Data))
	}
	if doc.ExportDate != "2025-03-11T00:00:00Z" {
		t.Fatalf("exportDate: got %q", doc.ExportDate)
	}
	for i, row := range doc.Data {
		if len(row) != len(ExportColumns) {
			t.Fatalf("row %d: want %d fields got %d", i, len(ExportColumns), len(row))
		}
	}
	if doc.Data[0]["status"] != "Overdue" || doc.Data[0]["username"] != "jdoe" {
		t.Fatalf("first row: got %v", doc.Data[0])
	}
	if doc.Data[1]["enrolment_date"] != "N/A" {
		t.Fatalf("second row enrolment: got %v", doc.Data[1]["enrolment_date"])
	}
}

func TestJSONExportEmpty(t *testing.T) {
	out := writeExport(t, constant.ExportFormatJSON, nil)

	var doc struct {
		TotalRecords int           `json:"totalRecords"`
		Data         []interface{} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if doc.TotalRecords != 0 || doc.Data == nil || len(doc.Data) != 0 {
		t.Fatalf("empty export: got %+v", doc)
	}
}

func TestExcelExportEscapes(t *testing.T) {
	out := writeExport(t, constant.ExportFormatExcel, exportFixture())

	if strings.Count(out, "<th>") != len(ExportColumns) {
		t.Fatalf("header cells: want %d got %d", len(ExportColumns), strings.Count(out, "<th>"))
	}
	if strings.Count(out, "<td>") != 2*len(ExportColumns) {
		t.Fatalf("data cells: want %d got %d", 2*len(ExportColumns), strings.Count(out, "<td>"))
	}
	if !strings.Contains(out, "Safety, Part &lt;1&gt;") {
		t.Fatalf("session name not escaped:\n%s", out)
	}
}
