// Package service holds adapters that deliver reservation events to other
// processes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

// Publisher sends reservation events to a durable RabbitMQ queue through the
// default exchange.  Each publish opens its own connection, which is
// adequate for the booking rate of a single restaurant.
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
	send    func(ctx context.Context, body []byte) error
}

// NewPublisher builds a Publisher for cfg.URL and cfg.Queue.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:     cfg.URL,
		queue:   cfg.Queue,
		timeout: 5 * time.Second,
		log:     logger,
		now:     time.Now,
	}
	p.send = p.publishAMQP
	return p
}

func (p *Publisher) ReservationCreated(ctx context.Context, r model.Reservation) error {
	return p.publish(ctx, queue.NewReservationEvent(queue.EventCreated, r, p.now()))
}

func (p *Publisher) ReservationStatusChanged(ctx context.Context, r model.Reservation, previous model.Status) error {
	ev := queue.NewReservationEvent(queue.EventStatusChanged, r, p.now())
	ev.PreviousStatus = previous
	return p.publish(ctx, ev)
}

// ReservationOverdue announces a confirmed reservation that passed its late
// tolerance without a check-in.
func (p *Publisher) ReservationOverdue(ctx context.Context, r model.Reservation) error {
	return p.publish(ctx, queue.NewReservationEvent(queue.EventOverdue, r, p.now()))
}

func (p *Publisher) publish(ctx context.Context, ev queue.ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	// Publishing happens after the request's work is committed; the
	// client going away must not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.send(ctx, body); err != nil {
		return fmt.Errorf("publish %s for %s: %w", ev.Type, ev.ReservationID, err)
	}
	p.log.Debug("event published", "type", ev.Type, "reservation_id", ev.ReservationID)
	return nil
}

func (p *Publisher) publishAMQP(ctx context.Context, body []byte) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	})
}
