package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
	EventBookingPaid      = "booking_paid"
	EventBookingAttached  = "booking_attached"
	EventBookingDetached  = "booking_detached"
	EventTripStarted      = "trip_started"
	EventTripCompleted    = "trip_completed"
	EventTripCancelled    = "trip_cancelled"
)

// Event is the lifecycle message written to the booking and notifications topics.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	TripID     string    `json:"trip_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Seat       string    `json:"seat,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Key() string {
	if e.BookingID != "" {
		return e.BookingID
	}
	return e.TripID
}

// PaymentNotification is what the webhook forwards to the payments topic.
type PaymentNotification struct {
	Type              string `json:"type"`
	ExternalPaymentID string `json:"external_payment_id"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Emitter publishes lifecycle events after the state change has been committed. Failures
// are logged and never reach the caller.
type Emitter struct {
	producer           Publisher
	bookingTopic       string
	notificationsTopic string
	log                *zap.Logger
	now                func() time.Time
}

type EmitterOption func(*Emitter)

func WithNotificationsTopic(topic string) EmitterOption {
	return func(e *Emitter) {
		e.notificationsTopic = topic
	}
}

func NewEmitter(producer Publisher, bookingTopic string, log *zap.Logger, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		producer:     producer,
		bookingTopic: bookingTopic,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Emitter) Emit(ctx context.Context, events ...Event) {
	if e == nil || e.producer == nil || e.bookingTopic == "" {
		return
	}
	for _, event := range events {
		if event.OccurredAt.IsZero() {
			event.OccurredAt = e.now().UTC()
		}
		e.publish(ctx, e.bookingTopic, event)
		if e.notificationsTopic != "" {
			e.publish(ctx, e.notificationsTopic, event)
		}
	}
}

func (e *Emitter) publish(ctx context.Context, topic string, event Event) {
	if err := e.producer.Publish(ctx, topic, event.Key(), event); err != nil {
		e.log.Warn("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", event.Type),
			zap.String("key", event.Key()),
			zap.Error(err))
	}
}
