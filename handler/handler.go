package handler

import (
	"context"
	"encoding/json"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/service"
)

type ServiceDependencies struct {
	ProgressService service.ProgressService
	ExportService   service.ExportService
}

// ProgressHandler applies a queued sample. Samples are not redelivered, so
// every failure is only logged by the consumer.
//
// The userId in the body is trusted as is. Only services holding broker
// credentials can publish to the progress queue; bearer tokens are checked at
// the HTTP edge and never travel through it.
func ProgressHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var progress dto.ProgressMessage
	if err := json.Unmarshal(msg.Body, &progress); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal progress message")
		return err
	}
	if progress.Sample.Source == "" {
		progress.Sample.Source = constant.SourceQueue
	}

	result, err := deps.ProgressService.SaveProgress(ctx, progress.UserID, progress.Sample)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().
		Uint64("user_id", progress.UserID).
		Str("video_id", result.VideoID).
		Bool("stale", result.Stale).
		Msg("queued progress applied")

	return nil
}

func ExportHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var exportMsg dto.ExportMessage
	if err := json.Unmarshal(msg.Body, &exportMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal export message")
		return backoff.Permanent(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", exportMsg.JobId.String()).
		Msg("received export message")

	err := deps.ExportService.Process(ctx, exportMsg)
	if err != nil {
		return err
	}

	return nil
}
