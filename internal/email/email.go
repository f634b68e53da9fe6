package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/spacebooking/config"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer Dialer
	from   string
	log    *zap.Logger
}

// NewSender returns a sender that only logs when SMTP is not configured.
func NewSender(cfg config.EmailConfig, log *zap.Logger) *Sender {
	s := &Sender{from: cfg.From, log: log}
	if cfg.Enabled() {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

func NewSenderWithDialer(dialer Dialer, from string, log *zap.Logger) *Sender {
	return &Sender{dialer: dialer, from: from, log: log}
}

func (s *Sender) Send(ctx context.Context, to string, event kafka.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.dialer == nil || to == "" {
		s.log.Info("email skipped", zap.String("type", event.Type), zap.String("to", to))
		return nil
	}

	if err := s.dialer.DialAndSend(Compose(s.from, to, event)); err != nil {
		return fmt.Errorf("send %s email: %w", event.Type, err)
	}
	s.log.Info("email sent", zap.String("type", event.Type), zap.String("to", to))
	return nil
}

func Compose(from, to string, event kafka.Event) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject(event))
	m.SetBody("text/plain", body(event))
	return m
}

func subject(event kafka.Event) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return "Your space booking is reserved"
	case kafka.EventBookingPaid:
		return "Payment received for your space booking"
	case kafka.EventBookingCancelled, kafka.EventTripCancelled:
		return "Your space booking was cancelled"
	case kafka.EventBookingAttached:
		return "You have a seat on an upcoming trip"
	case kafka.EventBookingDetached:
		return "Your trip assignment changed"
	case kafka.EventTripStarted:
		return "Boarding confirmed, have a great flight"
	case kafka.EventTripCompleted:
		return "Welcome back to Earth"
	}
	return "Space booking update"
}

func body(event kafka.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", event.BookingID)
	if event.TripID != "" {
		fmt.Fprintf(&b, "Trip: %s\n", event.TripID)
	}
	if event.Seat != "" {
		fmt.Fprintf(&b, "Seat: %s\n", event.Seat)
	}
	if event.Amount != "" {
		fmt.Fprintf(&b, "Amount: %s\n", event.Amount)
	}
	fmt.Fprintf(&b, "Status: %s\n", event.Status)
	return b.String()
}
