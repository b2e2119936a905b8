package config

import (
	"context"
	"errors"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"time"
)

const rabbitMQConnectAttempts = 5

// URI builds the broker address. Credentials are escaped by amqp.URI.
func (r *RabbitMQ) URI() string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     r.Host,
		Port:     r.Port,
		Username: r.User,
		Password: r.Pass,
		Vhost:    "/",
	}.String()
}

// NewRabbitMQConn dials the broker with exponential backoff and closes the
// connection when ctx is done.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQ) (*amqp.Connection, error) {
	logger := zerolog.Ctx(ctx).With().Str("host", cfg.Host).Int("port", cfg.Port).Logger()
	dialConfig := amqp.Config{
		Heartbeat: 10 * time.Second,
		Properties: amqp.Table{
			"connection_name": "video-tracker",
		},
	}

	operation := func() (*amqp.Connection, error) {
		conn, err := amqp.DialConfig(cfg.URI(), dialConfig)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq dial failed, retrying")
			return nil, err
		}
		return conn, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	conn, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(rabbitMQConnectAttempts))
	if err != nil {
		logger.Error().Err(err).Int("attempts", rabbitMQConnectAttempts).Msg("giving up on RabbitMQ")
		return nil, err
	}

	logger.Info().Msg("connected to RabbitMQ")
	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
			return
		}
		logger.Info().Msg("RabbitMQ connection closed")
	}()

	return conn, nil
}
