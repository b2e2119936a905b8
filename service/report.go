package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"io"
	"time"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/entities"
	"video-tracker/repository"
)

type ReportService interface {
	Query(ctx context.Context, filter dto.ReportFilter, limit int) ([]*entities.ReportRow, error)
	GetRecord(ctx context.Context, id uint64) (*entities.ReportRow, error)
	UpdateRecord(ctx context.Context, id uint64, req dto.UpdateRecordRequest) (*entities.WatchRecord, error)
	DeleteRecord(ctx context.Context, id uint64) error
	Export(ctx context.Context, w io.Writer, format constant.ExportFormat, filter dto.ReportFilter) (int, error)
	DebugInfo(ctx context.Context, userID uint64) (*dto.DebugInfo, error)
}

type reportService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewReportService(repo repository.Repository) ReportService {
	return &reportService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *reportService) Query(ctx context.Context, filter dto.ReportFilter, limit int) ([]*entities.ReportRow, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, *filter.Status)
	}
	return s.repo.QueryWatchRecords(ctx, filter, limit)
}

func (s *reportService) GetRecord(ctx context.Context, id uint64) (*entities.ReportRow, error) {
	row, err := s.repo.GetWatchRecordByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return row, nil
}

// UpdateRecord applies an admin edit. Status is recomputed from the edited
// percent and the stored enrolment date.
func (s *reportService) UpdateRecord(ctx context.Context, id uint64, req dto.UpdateRecordRequest) (*entities.WatchRecord, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	now := s.now()
	percent := ClampPercent(*req.Percent)
	record, err := s.repo.UpdateWatchRecord(ctx, id, func(record *entities.WatchRecord) error {
		record.Percent = percent
		record.AssessmentTaken = req.AssessmentTaken
		if req.CurrentDuration != "" {
			record.CurrentDuration = req.CurrentDuration
		}
		if req.FullDuration != "" {
			record.FullDuration = req.FullDuration
		}
		record.Status = CalculateStatus(percent, record.EnrolmentDate, now)
		record.LastWatched = now
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	zerolog.Ctx(ctx).Info().
		Uint64("record_id", id).
		Int("percent", record.Percent).
		Bool("assessment_taken", record.AssessmentTaken).
		Str("status", record.Status.Label()).
		Msg("record updated")

	return record, nil
}

func (s *reportService) DeleteRecord(ctx context.Context, id uint64) error {
	if err := s.repo.DeleteWatchRecord(ctx, id); err != nil {
		return mapNotFound(err)
	}
	zerolog.Ctx(ctx).Info().Uint64("record_id", id).Msg("record deleted")
	return nil
}

// Export streams every record matching filter to w and returns the number of
// rows written.
func (s *reportService) Export(ctx context.Context, w io.Writer, format constant.ExportFormat, filter dto.ReportFilter) (int, error) {
	if !format.Valid() {
		return 0, fmt.Errorf("%w: unknown export format %q", ErrValidation, format)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return 0, fmt.Errorf("%w: unknown status %d", ErrValidation, *filter.Status)
	}

	total, err := s.repo.CountWatchRecords(ctx, filter)
	if err != nil {
		return 0, err
	}

	ew := NewExportWriter(format, w)
	if err := ew.Begin(s.now(), total); err != nil {
		return 0, err
	}

	written := 0
	err = s.repo.StreamWatchRecords(ctx, filter, func(row *entities.ReportRow) error {
		written++
		return ew.Row(row)
	})
	if err != nil {
		return written, err
	}

	if err := ew.End(); err != nil {
		return written, err
	}

	zerolog.Ctx(ctx).Info().Str("format", string(format)).Int("records", written).Msg("report exported")
	return written, nil
}

func (s *reportService) DebugInfo(ctx context.Context, userID uint64) (*dto.DebugInfo, error) {
	info := &dto.DebugInfo{
		CurrentUser: userID,
		AppVersion:  constant.AppVersion,
	}

	info.TableExists = s.repo.HasWatchRecordTable(ctx)
	if !info.TableExists {
		return info, nil
	}

	count, err := s.repo.CountWatchRecords(ctx, dto.ReportFilter{})
	if err != nil {
		return nil, err
	}
	info.RecordCount = count

	samples, err := s.repo.LatestWatchRecords(ctx, constant.DebugSampleLimit)
	if err != nil {
		return nil, err
	}
	info.SampleRecords = samples

	return info, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
