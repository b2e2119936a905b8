package repository

import (
	"context"
	"database/sql"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/entities"
)

type Repository interface {
	GetDB() *gorm.DB
	Migrate(ctx context.Context) error

	UpsertWatchRecord(ctx context.Context, record *entities.WatchRecord) (bool, error)
	GetWatchRecord(ctx context.Context, userID uint64, videoID, sessionID string) (*entities.WatchRecord, error)
	GetWatchRecordByID(ctx context.Context, id uint64) (*entities.ReportRow, error)
	UpdateWatchRecord(ctx context.Context, id uint64, mutate func(record *entities.WatchRecord) error) (*entities.WatchRecord, error)
	DeleteWatchRecord(ctx context.Context, id uint64) error
	QueryWatchRecords(ctx context.Context, filter dto.ReportFilter, limit int) ([]*entities.ReportRow, error)
	StreamWatchRecords(ctx context.Context, filter dto.ReportFilter, fn func(row *entities.ReportRow) error) error
	CountWatchRecords(ctx context.Context, filter dto.ReportFilter) (int64, error)
	LatestWatchRecords(ctx context.Context, limit int) ([]entities.WatchRecord, error)
	HasWatchRecordTable(ctx context.Context) bool

	FindPostById(ctx context.Context, id uint64) (*entities.Post, error)

	CreateJob(ctx context.Context, job *entities.Job) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error
	CompleteExportJob(ctx context.Context, id uuid.UUID, objectName string, totalRecords int) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (Repository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return NewRepoWithDB(gormDB), nil
}

func NewRepoWithDB(db *gorm.DB) Repository {
	return &repo{
		db: db,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Migrate(ctx context.Context) error {
	return r.GetDB().WithContext(ctx).AutoMigrate(
		&entities.User{},
		&entities.Post{},
		&entities.WatchRecord{},
		&entities.Job{},
	)
}

func (r *repo) FindPostById(ctx context.Context, id uint64) (*entities.Post, error) {
	post := &entities.Post{}
	err := r.GetDB().WithContext(ctx).First(post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (r *repo) CreateJob(ctx context.Context, job *entities.Job) error {
	return r.GetDB().WithContext(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job := &entities.Job{}
	err := r.GetDB().WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *repo) UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error {
	job := &entities.Job{}
	err := r.GetDB().WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		return err
	}
	job.Status = status
	err = r.GetDB().WithContext(ctx).Save(job).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) CompleteExportJob(ctx context.Context, id uuid.UUID, objectName string, totalRecords int) error {
	updates := map[string]interface{}{
		"status":        constant.JobStatusCompleted,
		"object_name":   objectName,
		"total_records": totalRecords,
	}
	err := r.GetDB().WithContext(ctx).Model(&entities.Job{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	return nil
}
