package constant

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

type JobType string

const (
	JobTypeReportExport JobType = "report_export"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// WatchStatus is the derived training status stored with each watch record.
type WatchStatus int

const (
	WatchStatusNotStarted WatchStatus = 0
	WatchStatusInProgress WatchStatus = 1
	WatchStatusCompleted  WatchStatus = 2
	WatchStatusOverdue    WatchStatus = 3
)

func (s WatchStatus) Label() string {
	switch s {
	case WatchStatusNotStarted:
		return "Not Started"
	case WatchStatusInProgress:
		return "In Progress"
	case WatchStatusCompleted:
		return "Completed"
	case WatchStatusOverdue:
		return "Overdue"
	}
	return "Unknown"
}

func (s WatchStatus) Valid() bool {
	return s >= WatchStatusNotStarted && s <= WatchStatusOverdue
}

// Source tags where a progress sample was captured. Diagnostics only.
type Source string

const (
	SourceMain     Source = "main"
	SourceIframe   Source = "iframe"
	SourceExternal Source = "external"
	SourceQueue    Source = "queue"
)

type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatJSON  ExportFormat = "json"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatExcel, ExportFormatJSON:
		return true
	}
	return false
}

func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatExcel:
		return "xls"
	case ExportFormatJSON:
		return "json"
	}
	return "csv"
}

func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatExcel:
		return "application/vnd.ms-excel"
	case ExportFormatJSON:
		return "application/json"
	}
	return "text/csv"
}

const (
	DefaultDuration    = "00:00:00"
	ReportDisplayLimit = 100
	DebugSampleLimit   = 5
	OverdueAfter       = 48 * time.Hour
	PostStatusPublish  = "publish"
	AppVersion         = "3.0"
)
