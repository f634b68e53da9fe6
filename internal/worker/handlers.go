// Package worker holds the message handlers run by cmd/worker.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/service/payments"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, msg kafkaGo.Message) error

type Reconciler interface {
	Reconcile(ctx context.Context, notification kafka.PaymentNotification) (*payments.Result, error)
}

type CustomerFinder interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

type Sender interface {
	Send(ctx context.Context, to string, event kafka.Event) error
}

// Payments reconciles queued gateway notifications. Undecodable messages are logged and
// skipped. Reconcile errors are returned so the consumer retries and never commits a
// notification that was not applied; soft results count as handled.
func Payments(reconciler Reconciler, log *zap.Logger) Handler {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		var notification kafka.PaymentNotification
		if err := json.Unmarshal(msg.Value, &notification); err != nil {
			log.Warn("decode payment notification", zap.ByteString("key", msg.Key), zap.Error(err))
			return nil
		}

		result, err := reconciler.Reconcile(ctx, notification)
		if err != nil {
			return fmt.Errorf("reconcile payment %s: %w", notification.ExternalPaymentID, err)
		}
		log.Info("payment notification processed",
			zap.String("external_payment_id", notification.ExternalPaymentID),
			zap.Bool("applied", result.Applied),
			zap.Bool("duplicate", result.Duplicate),
			zap.String("reason", result.Reason))
		return nil
	}
}

// Notifications emails the customer an event concerns. Trip level events without a
// customer are skipped. Delivery is best effort.
func Notifications(customers CustomerFinder, sender Sender, log *zap.Logger) Handler {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("decode event", zap.ByteString("key", msg.Key), zap.Error(err))
			return nil
		}
		if event.CustomerID == "" {
			return nil
		}

		customer, err := customers.GetCustomer(ctx, event.CustomerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Warn("notification for unknown customer", zap.String("customer_id", event.CustomerID))
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("load customer for notification", zap.String("customer_id", event.CustomerID), zap.Error(err))
			return nil
		}
		if err := sender.Send(ctx, customer.Email, event); err != nil {
			log.Error("send notification", zap.String("type", event.Type), zap.Error(err))
		}
		return nil
	}
}
