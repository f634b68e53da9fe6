package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     Reader
	log        *zap.Logger
	maxRetries uint64
	retryBase  time.Duration
}

type ConsumerOption func(*Consumer)

// WithRetry sets how often a failing message is retried before Consume gives up.
func WithRetry(maxRetries uint64, base time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.maxRetries = maxRetries
		c.retryBase = base
	}
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), log, opts...)
}

func NewConsumerWithReader(reader Reader, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{reader: reader, log: log, maxRetries: 5, retryBase: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands each message to handler and commits its offset only once handler returns
// nil. A failing message is retried with exponential backoff; when retries run out Consume
// returns the error and the offset stays uncommitted, so the group redelivers it.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
		attempt := 0
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempt++
			if err := handler(ctx, msg); err != nil {
				c.log.Warn("message handler failed",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Int("attempt", attempt),
					zap.Error(err))
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("handle %s offset %d: %w", msg.Topic, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit %s offset %d: %w", msg.Topic, msg.Offset, err)
		}
	}
}
