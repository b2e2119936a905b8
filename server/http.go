package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"video-tracker/config"
	"video-tracker/constant"
	jobHandler "video-tracker/handler"
	"video-tracker/pkg/rabbitmq"
	"video-tracker/repository"
	"video-tracker/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := jobHandler.RegisterBindings(); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("RegisterBindings")
	}

	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewRepo")
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.Ping(ctx).Err(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("redis unreachable, enrolment cache disabled")
			cfg.Cache = nil
		}
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	enrolment := service.NewEnrolmentResolver(repo, cfg.Cache, cfg.Enrolment.CacheTTL)
	progressService := service.NewProgressService(repo, enrolment)
	reportService := service.NewReportService(repo)

	var publisher service.Publisher = unavailablePublisher{}
	if conn != nil {
		publisher = rabbitmq.NewPublisher(conn, cfg.Queue, rabbitmq.ExportBinding)
	}
	exportService := service.NewExportService(repo, reportService, cfg.Storage, publisher, service.ExportOptions{
		Bucket:    cfg.MinIOBucket,
		TempDir:   cfg.Export.TempDir,
		URLExpiry: cfg.Export.URLExpiry,
	})

	serviceDeps := jobHandler.ServiceDependencies{
		ProgressService: progressService,
		ExportService:   exportService,
	}

	if conn != nil {
		// Start progress consumer
		progressConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.ProgressBinding, cfg.Server.Workers, jobHandler.ProgressHandler)
		go func() {
			err := progressConsumer.Consume(ctx, serviceDeps)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Progress consumer error")
			}
		}()

		// Start export consumer
		exportConsumer := rabbitmq.NewRetryConsumer(conn, cfg.Queue, rabbitmq.ExportBinding, cfg.Server.Workers, jobHandler.ExportHandler)
		go func() {
			err := exportConsumer.Consume(ctx, serviceDeps)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Export consumer error")
			}
		}()
	}

	limiter := jobHandler.NewRateLimiter(rate.Limit(cfg.Ingest.RatePerSecond), cfg.Ingest.Burst)
	defer limiter.Stop()

	r := gin.Default()
	addHealth(r)
	httpHandler := &jobHandler.HTTPHandler{
		Progress: progressService,
		Reports:  reportService,
		Exports:  exportService,
	}
	httpHandler.Register(r, jobHandler.Middlewares{
		Logger:       jobHandler.WithLogger(ctx),
		Authenticate: jobHandler.Authenticate([]byte(cfg.Auth.JWTSecret)),
		RequireAdmin: jobHandler.RequireRole(cfg.Auth.AdminRole),
		RateLimit:    limiter.Middleware(),
	})

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

// unavailablePublisher fails export requests while RabbitMQ is down.
type unavailablePublisher struct{}

func (unavailablePublisher) Publish(context.Context, interface{}) error {
	return errors.New("message queue unavailable")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
