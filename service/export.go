package service

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"html"
	"io"
	"strconv"
	"time"
	"video-tracker/constant"
	"video-tracker/entities"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportColumns is the fixed column set of every export format, in order.
var ExportColumns = []string{
	"ID",
	"User ID",
	"Username",
	"Email",
	"Video ID",
	"Session ID",
	"Session Name",
	"Progress (%)",
	"Status",
	"Assessment Taken",
	"Current Duration",
	"Full Duration",
	"Enrolment Date",
	"Last Watched",
	"Created At",
}

type ExportWriter interface {
	Begin(exportDate time.Time, total int64) error
	Row(row *entities.ReportRow) error
	End() error
}

func NewExportWriter(format constant.ExportFormat, w io.Writer) ExportWriter {
	switch format {
	case constant.ExportFormatExcel:
		return &excelWriter{w: bufio.NewWriter(w)}
	case constant.ExportFormatJSON:
		return &jsonWriter{w: bufio.NewWriter(w)}
	}
	return &csvWriter{w: csv.NewWriter(w)}
}

func exportValues(row *entities.ReportRow) []string {
	enrolment := "N/A"
	if row.EnrolmentDate != nil {
		enrolment = row.EnrolmentDate.Format(exportTimeLayout)
	}
	assessment := "No"
	if row.AssessmentTaken {
		assessment = "Yes"
	}

	return []string{
		strconv.FormatUint(row.ID, 10),
		strconv.FormatUint(row.UserID, 10),
		row.UserLogin,
		row.UserEmail,
		row.VideoID,
		row.SessionID,
		row.SessionName,
		strconv.Itoa(row.Percent),
		row.Status.Label(),
		assessment,
		row.CurrentDuration,
		row.FullDuration,
		enrolment,
		row.LastWatched.Format(exportTimeLayout),
		row.CreatedAt.Format(exportTimeLayout),
	}
}

type csvWriter struct {
	w *csv.Writer
}

func (c *csvWriter) Begin(time.Time, int64) error {
	return c.w.Write(ExportColumns)
}

func (c *csvWriter) Row(row *entities.ReportRow) error {
	return c.w.Write(exportValues(row))
}

func (c *csvWriter) End() error {
	c.w.Flush()
	return c.w.Error()
}

// excelWriter emits an HTML table, which spreadsheet applications open as a
// worksheet when served as application/vnd.ms-excel.
type excelWriter struct {
	w *bufio.Writer
}

func (e *excelWriter) Begin(time.Time, int64) error {
	e.w.WriteString("<html><head><meta charset=\"utf-8\"></head><body><table border=\"1\">\n<tr>")
	for _, col := range ExportColumns {
		e.w.WriteString("<th>" + html.EscapeString(col) + "</th>")
	}
	_, err := e.w.WriteString("</tr>\n")
	return err
}

func (e *excelWriter) Row(row *entities.ReportRow) error {
	e.w.WriteString("<tr>")
	for _, v := range exportValues(row) {
		e.w.WriteString("<td>" + html.EscapeString(v) + "</td>")
	}
	_, err := e.w.WriteString("</tr>\n")
	return err
}

func (e *excelWriter) End() error {
	e.w.WriteString("</table></body></html>\n")
	return e.w.Flush()
}

type jsonRow struct {
	ID              uint64 `json:"id"`
	UserID          uint64 `json:"user_id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	VideoID         string `json:"video_id"`
	SessionID       string `json:"session_id"`
	SessionName     string `json:"session_name"`
	Percent         int    `json:"percent"`
	Status          string `json:"status"`
	AssessmentTaken bool   `json:"assessment_taken"`
	CurrentDuration string `json:"current_duration"`
	FullDuration    string `json:"full_duration"`
	EnrolmentDate   string `json:"enrolment_date"`
	LastWatched     string `json:"last_watched"`
	CreatedAt       string `json:"created_at"`
}

// jsonWriter streams {"exportDate", "totalRecords", "data": [...]}.
// totalRecords is the match count taken when the export starts.
type jsonWriter struct {
	w     *bufio.Writer
	count int
}

func (j *jsonWriter) Begin(exportDate time.Time, total int64) error {
	date, err := json.Marshal(exportDate.Format(time.RFC3339))
	if err != nil {
		return err
	}
	j.w.WriteString(`{"exportDate":`)
	j.w.Write(date)
	j.w.WriteString(`,"totalRecords":` + strconv.FormatInt(total, 10))
	_, err = j.w.WriteString(`,"data":[`)
	return err
}

func (j *jsonWriter) Row(row *entities.ReportRow) error {
	v := exportValues(row)
	b, err := json.Marshal(jsonRow{
		ID:              row.ID,
		UserID:          row.UserID,
		Username:        row.UserLogin,
		Email:           row.UserEmail,
		VideoID:         row.VideoID,
		SessionID:       row.SessionID,
		SessionName:     row.SessionName,
		Percent:         row.Percent,
		Status:          row.Status.Label(),
		AssessmentTaken: row.AssessmentTaken,
		CurrentDuration: row.CurrentDuration,
		FullDuration:    row.FullDuration,
		EnrolmentDate:   v[12],
		LastWatched:     v[13],
		CreatedAt:       v[14],
	})
	if err != nil {
		return err
	}
	if j.count > 0 {
		j.w.WriteByte(',')
	}
	j.count++
	_, err = j.w.Write(b)
	return err
}

func (j *jsonWriter) End() error {
	j.w.WriteString("]}\n")
	return j.w.Flush()
}
