package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// EventPublisher delivers enrollment domain events to whoever relays them on.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.EnrollmentEvent) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   zerolog.Logger
}

// NewRabbitMQPublisher declares a durable topic exchange and publishes every
// event with its type as the routing key.
func NewRabbitMQPublisher(url, exchange string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, event *models.EnrollmentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Unix(event.Timestamp, 0),
			Type:         event.Type,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug().
		Str("event", event.Type).
		Str("enrollment_id", event.EnrollmentID).
		Msg("Enrollment event published")

	return nil
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher drops events, logging them at debug level. Used when no
// broker is configured.
func NewNopPublisher(logger zerolog.Logger) EventPublisher {
	return &nopPublisher{logger: logger}
}

func (p *nopPublisher) Publish(_ context.Context, event *models.EnrollmentEvent) error {
	p.logger.Debug().
		Str("event", event.Type).
		Str("enrollment_id", event.EnrollmentID).
		Msg("Event publishing disabled, dropping event")
	return nil
}

func (p *nopPublisher) Close() error { return nil }
