package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/entities"
	"video-tracker/repository"
)

// ObjectStorage is the part of *minio.Client export jobs need.
type ObjectStorage interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type Publisher interface {
	Publish(ctx context.Context, message interface{}) error
}

type ExportOptions struct {
	Bucket    string
	TempDir   string
	URLExpiry time.Duration
}

type ExportJob struct {
	*entities.Job
	DownloadURL string `json:"download_url,omitempty"`
}

type ExportService interface {
	CreateExport(ctx context.Context, req dto.ExportRequest) (*entities.Job, error)
	GetExport(ctx context.Context, id uuid.UUID) (*ExportJob, error)
	Process(ctx context.Context, message dto.ExportMessage) error
}

type exportService struct {
	repo      repository.Repository
	reports   ReportService
	storage   ObjectStorage
	publisher Publisher
	opts      ExportOptions
}

func NewExportService(repo repository.Repository, reports ReportService, storage ObjectStorage, publisher Publisher, opts ExportOptions) ExportService {
	if opts.TempDir == "" {
		opts.TempDir = "temp"
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = time.Hour
	}
	return &exportService{
		repo:      repo,
		reports:   reports,
		storage:   storage,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *exportService) CreateExport(ctx context.Context, req dto.ExportRequest) (*entities.Job, error) {
	if !req.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown export format %q", ErrValidation, req.Format)
	}
	if req.Filter.Status != nil && !req.Filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, *req.Filter.Status)
	}

	filters, err := json.Marshal(req.Filter)
	if err != nil {
		return nil, err
	}

	job := &entities.Job{
		ID:         uuid.New(),
		EntityType: "report",
		Status:     constant.JobStatusPending,
		JobType:    constant.JobTypeReportExport,
		Format:     req.Format,
		Filters:    datatypes.JSON(filters),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create export job")
		return nil, err
	}

	if err := s.publisher.Publish(ctx, dto.ExportMessage{JobId: job.ID}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to publish export job")
		if updateErr := s.repo.UpdateStatusJob(ctx, constant.JobStatusFailed, job.ID); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Str("format", string(req.Format)).Msg("export job queued")
	return job, nil
}

func (s *exportService) GetExport(ctx context.Context, id uuid.UUID) (*ExportJob, error) {
	job, err := s.repo.FindJobById(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	view := &ExportJob{Job: job}
	if job.Status == constant.JobStatusCompleted && job.ObjectName != nil {
		u, err := s.storage.PresignedGetObject(ctx, s.opts.Bucket, *job.ObjectName, s.opts.URLExpiry, nil)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to presign export")
			return nil, err
		}
		view.DownloadURL = u.String()
	}

	return view, nil
}

// Process runs one export job. Non-retryable failures mark the job FAILED and
// are swallowed; anything else puts the job back to PENDING and is returned so
// the consumer can retry it.
func (s *exportService) Process(ctx context.Context, message dto.ExportMessage) (err error) {
	zerolog.Ctx(ctx).Info().Str("job_id", message.JobId.String()).Msg("processing export job")
	job, err := s.repo.FindJobById(ctx, message.JobId)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to find job by id")
		return err
	}

	if job.Status != constant.JobStatusPending {
		zerolog.Ctx(ctx).Info().Str("job_id", message.JobId.String()).Msg("job is not pending")
		return nil
	}

	if err := s.repo.UpdateStatusJob(ctx, constant.JobStatusProcessing, message.JobId); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update job status")
		return err
	}

	defer func() {
		if err != nil {
			if errors.Is(err, ErrNonRetryable) {
				if updateErr := s.repo.UpdateStatusJob(ctx, constant.JobStatusFailed, message.JobId); updateErr != nil {
					zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
				}
				err = nil
			} else {
				if updateErr := s.repo.UpdateStatusJob(ctx, constant.JobStatusPending, message.JobId); updateErr != nil {
					zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
				}
			}
		}
	}()

	var filter dto.ReportFilter
	if len(job.Filters) > 0 {
		if err = json.Unmarshal(job.Filters, &filter); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to decode job filters")
			return errors.Join(ErrNonRetryable, err)
		}
	}
	if !job.Format.Valid() {
		err = fmt.Errorf("unknown export format %q", job.Format)
		zerolog.Ctx(ctx).Error().Err(err).Msg("invalid export job")
		return errors.Join(ErrNonRetryable, err)
	}

	tempDir := filepath.Join(s.opts.TempDir, message.JobId.String())
	defer os.RemoveAll(tempDir)

	if err = os.MkdirAll(tempDir, os.ModePerm); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create temp directory")
		return errors.Join(ErrNonRetryable, err)
	}

	fileName := "export." + job.Format.Extension()
	localPath := filepath.Join(tempDir, fileName)
	total, err := s.writeExport(ctx, localPath, job.Format, filter)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to write export")
		return err
	}

	objectName := strings.ReplaceAll(filepath.Join("exports", message.JobId.String()+"."+job.Format.Extension()), "\\", "/")
	zerolog.Ctx(ctx).Info().Str("object_name", objectName).Int("records", total).Msg("uploading export")
	_, err = s.storage.FPutObject(ctx, s.opts.Bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: job.Format.ContentType(),
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to upload export")
		return err
	}

	if err = s.repo.CompleteExportJob(ctx, message.JobId, objectName, total); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update job status")
		return err
	}

	zerolog.Ctx(ctx).Info().Str("job_id", message.JobId.String()).Msg("job completed")

	return nil
}

func (s *exportService) writeExport(ctx context.Context, path string, format constant.ExportFormat, filter dto.ReportFilter) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Join(ErrNonRetryable, err)
	}
	defer f.Close()

	total, err := s.reports.Export(ctx, f, format, filter)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return 0, errors.Join(ErrNonRetryable, err)
		}
		return 0, err
	}

	return total, f.Close()
}
