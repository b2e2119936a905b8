package entities

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
	"video-tracker/constant"
)

type Job struct {
	ID           uuid.UUID             `json:"id" gorm:"type:uuid;primary_key"`
	EntityType   string                `json:"entity_type" gorm:"type:varchar(50);not null"`
	Status       constant.JobStatus    `json:"status" gorm:"type:varchar(20);not null;index:idx_jobs_status"`
	JobType      constant.JobType      `json:"job_type" gorm:"type:varchar(50);not null"`
	Format       constant.ExportFormat `json:"format" gorm:"type:varchar(10);not null"`
	Filters      datatypes.JSON        `json:"filters" gorm:"type:json"`
	ObjectName   *string               `json:"object_name" gorm:"type:varchar(500)"`
	TotalRecords int                   `json:"total_records" gorm:"not null;default:0"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}
