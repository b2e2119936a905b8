package entities

import (
	"time"
	"video-tracker/constant"
)

// WatchRecord is the durable watch state of one (user, video, session) triple.
type WatchRecord struct {
	ID              uint64               `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          uint64               `json:"user_id" gorm:"not null;uniqueIndex:uniq_watch_triple,priority:1;index:idx_watch_user_id"`
	VideoID         string               `json:"video_id" gorm:"type:varchar(255);not null;uniqueIndex:uniq_watch_triple,priority:2;index:idx_watch_video_id"`
	SessionID       string               `json:"session_id" gorm:"type:varchar(255);not null;uniqueIndex:uniq_watch_triple,priority:3;index:idx_watch_session_id"`
	SessionName     string               `json:"session_name" gorm:"type:varchar(255)"`
	Percent         int                  `json:"percent" gorm:"not null;default:0"`
	CurrentDuration string               `json:"current_duration" gorm:"type:varchar(8);default:'00:00:00'"`
	FullDuration    string               `json:"full_duration" gorm:"type:varchar(8);default:'00:00:00'"`
	AssessmentTaken bool                 `json:"assessment_taken" gorm:"not null;default:false"`
	EnrolmentDate   *time.Time           `json:"enrolment_date"`
	Status          constant.WatchStatus `json:"status" gorm:"type:smallint;not null;default:0;index:idx_watch_status"`
	LastWatched     time.Time            `json:"last_watched" gorm:"not null;index:idx_watch_last_watched"`
	CreatedAt       time.Time            `json:"created_at" gorm:"not null"`
}

func (WatchRecord) TableName() string {
	return "video_watch_progress"
}

// ReportRow is a watch record joined with the viewer's login and email.
type ReportRow struct {
	WatchRecord
	UserLogin string `json:"user_login"`
	UserEmail string `json:"user_email"`
}
