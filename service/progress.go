package service

import (
	"context"
	"github.com/rs/zerolog"
	"time"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/repository"
)

type ProgressService interface {
	SaveProgress(ctx context.Context, userID uint64, sample dto.ProgressSample) (*dto.ProgressResult, error)
}

type progressService struct {
	repo      repository.Repository
	enrolment EnrolmentResolver
	now       func() time.Time
}

func NewProgressService(repo repository.Repository, enrolment EnrolmentResolver) ProgressService {
	return &progressService{
		repo:      repo,
		enrolment: enrolment,
		now:       time.Now,
	}
}

func (s *progressService) SaveProgress(ctx context.Context, userID uint64, in dto.ProgressSample) (*dto.ProgressResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if err := validateSample(in); err != nil {
		return nil, err
	}

	now := s.now()
	videoID, reliable, err := ResolveVideoID(VideoDescriptor{
		ExplicitID: in.VideoID,
		SourceURL:  in.SourceURL,
		Position:   in.Position,
	}, now)
	if err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = constant.SourceMain
	}
	logger := zerolog.Ctx(ctx).With().
		Uint64("user_id", userID).
		Str("video_id", videoID).
		Str("session_id", in.SessionID).
		Str("source", string(source)).
		Logger()
	if !reliable {
		logger.Warn().Msg("placeholder video id, progress will not be stable across reloads")
	}

	sample := Sample{
		UserID:          userID,
		VideoID:         videoID,
		SessionID:       in.SessionID,
		SessionName:     in.SessionName,
		Percent:         in.Percent,
		CurrentDuration: in.CurrentDuration,
		FullDuration:    in.FullDuration,
		Source:          source,
	}

	existing, err := s.repo.GetWatchRecord(ctx, userID, videoID, in.SessionID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load watch record")
		return nil, err
	}

	var enrolment *time.Time
	if existing == nil || existing.EnrolmentDate == nil {
		enrolment, err = s.enrolment.ResolveEnrolmentDate(ctx, in.SessionID)
		if err != nil {
			logger.Warn().Err(err).Msg("enrolment date lookup failed, continuing without one")
			enrolment = nil
		}
	}

	decision := Reconcile(existing, sample, enrolment, now)
	result := &dto.ProgressResult{
		Status:  decision.Record.Status,
		VideoID: videoID,
	}

	if decision.Stale() {
		logger.Debug().
			Int("percent", ClampPercent(in.Percent)).
			Int("stored_percent", existing.Percent).
			Msg("stale sample ignored")
		result.Stale = true
		return result, nil
	}

	row := *decision.Record
	row.ID = 0
	written, err := s.repo.UpsertWatchRecord(ctx, &row)
	if err != nil {
		logger.Error().Err(err).Msg("failed to save progress")
		return nil, err
	}
	if !written {
		logger.Debug().Int("percent", row.Percent).Msg("stale sample ignored, a newer write landed first")
		result.Stale = true
		return result, nil
	}

	result.Written = true
	logger.Debug().
		Bool("insert", decision.Insert).
		Int("percent", row.Percent).
		Str("status", row.Status.Label()).
		Msg("progress saved")

	return result, nil
}
