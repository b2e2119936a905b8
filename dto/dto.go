package dto

import (
	"github.com/google/uuid"
	"video-tracker/constant"
	"video-tracker/entities"
)

// ProgressSample is one client-reported playback observation.
type ProgressSample struct {
	VideoID         string          `json:"video_id" form:"video_id"`
	SourceURL       string          `json:"source_url" form:"source_url"`
	Position        *int            `json:"position" form:"position"`
	Percent         int             `json:"percent" form:"percent"`
	FullDuration    string          `json:"full_duration" form:"full_duration" binding:"omitempty,hhmmss"`
	CurrentDuration string          `json:"current_duration" form:"current_duration" binding:"omitempty,hhmmss"`
	SessionID       string          `json:"session_id" form:"session_id" binding:"required"`
	SessionName     string          `json:"session_name" form:"session_name" binding:"required"`
	Source          constant.Source `json:"source" form:"source"`
}

type ProgressResult struct {
	Status  constant.WatchStatus `json:"status"`
	VideoID string               `json:"video_id"`
	Written bool                 `json:"written"`
	Stale   bool                 `json:"stale"`
}

type ProgressMessage struct {
	UserID uint64         `json:"userId"`
	Sample ProgressSample `json:"sample"`
}

type UpdateRecordRequest struct {
	Percent         *int   `json:"percent" binding:"required"`
	AssessmentTaken bool   `json:"assessment_taken"`
	CurrentDuration string `json:"current_duration" binding:"omitempty,hhmmss"`
	FullDuration    string `json:"full_duration" binding:"omitempty,hhmmss"`
}

type ReportFilter struct {
	UserLike        string                `json:"search_user,omitempty" form:"search_user"`
	SessionNameLike string                `json:"search_session,omitempty" form:"search_session"`
	Status          *constant.WatchStatus `json:"filter_status,omitempty" form:"-"`
}

type ExportRequest struct {
	Format constant.ExportFormat `json:"format" binding:"required"`
	Filter ReportFilter          `json:"filter"`
}

type ExportMessage struct {
	JobId uuid.UUID `json:"jobId"`
}

type DebugInfo struct {
	TableExists   bool                   `json:"table_exists"`
	RecordCount   int64                  `json:"record_count"`
	SampleRecords []entities.WatchRecord `json:"sample_records"`
	CurrentUser   uint64                 `json:"current_user"`
	AppVersion    string                 `json:"app_version"`
}
