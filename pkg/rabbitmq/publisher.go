package rabbitmq

import (
	"context"
	"encoding/json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"time"
	"video-tracker/config"
)

type Publisher struct {
	conn    *amqp.Connection
	cfg     *config.RabbitMQ
	binding Binding
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, binding Binding) *Publisher {
	return &Publisher{
		conn:    conn,
		cfg:     cfg,
		binding: binding,
	}
}

// Publish sends message as a persistent JSON delivery to the binding's exchange.
func (p *Publisher) Publish(ctx context.Context, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(p.binding.Exchange, p.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("exchange", p.binding.Exchange).Msg("failed to declare exchange")
		return err
	}

	err = ch.PublishWithContext(ctx, p.binding.Exchange, p.binding.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("exchange", p.binding.Exchange).Msg("failed to publish message")
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("exchange", p.binding.Exchange).Str("routing_key", p.binding.RoutingKey).Msg("message published")
	return nil
}
