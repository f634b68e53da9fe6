// Package payments records payments and applies confirmations to bookings, either directly or
// from notifications reported by the payment gateway.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/gateway"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentUseCase interface {
	RecordPayment(ctx context.Context, input PaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, bookingID string, page repository.Page) ([]domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error)
	StartCheckout(ctx context.Context, bookingID string) (*gateway.Checkout, error)
	Reconcile(ctx context.Context, notification kafka.PaymentNotification) (*Result, error)
}

type Gateway interface {
	CreateCheckout(ctx context.Context, bookingID string, amount decimal.Decimal, currency string) (*gateway.Checkout, error)
	LookupPayment(ctx context.Context, externalPaymentID string) (*gateway.PaymentInfo, error)
}

// NotificationLog remembers which gateway notifications were already applied.
type NotificationLog interface {
	NotificationSeen(ctx context.Context, externalID, status string) (bool, error)
	RememberNotification(ctx context.Context, externalID, status string, ttl time.Duration) error
}

type Events interface {
	Emit(ctx context.Context, events ...kafka.Event)
}

type PaymentInput struct {
	BookingID         string               `json:"booking_id"`
	Amount            decimal.Decimal      `json:"amount"`
	CurrencyCode      string               `json:"currency_code"`
	Status            domain.PaymentStatus `json:"status"`
	ExternalReference string               `json:"external_reference"`
	Method            string               `json:"method"`
}

// Result is the outcome of a reconciliation. A notification that could not be applied
// carries the reason instead of an error.
type Result struct {
	Applied   bool                 `json:"applied"`
	Duplicate bool                 `json:"duplicate,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	BookingID string               `json:"booking_id,omitempty"`
	PaymentID string               `json:"payment_id,omitempty"`
	Status    domain.PaymentStatus `json:"status,omitempty"`
}

type PaymentService struct {
	payments      repository.PaymentRepository
	bookings      repository.BookingRepository
	catalog       repository.CatalogRepository
	gateway       Gateway
	tx            repository.TxManager
	events        Events
	notifications NotificationLog
	dedupeTTL     time.Duration
	currency      string
	log           *zap.Logger
}

type PaymentServiceOption func(*PaymentService)

func WithEvents(events Events) PaymentServiceOption {
	return func(s *PaymentService) {
		s.events = events
	}
}

func WithNotificationLog(notifications NotificationLog, ttl time.Duration) PaymentServiceOption {
	return func(s *PaymentService) {
		s.notifications = notifications
		s.dedupeTTL = ttl
	}
}

// WithDefaultCurrency sets the currency checkouts are opened in.
func WithDefaultCurrency(code string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.currency = strings.ToUpper(code)
	}
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	catalog repository.CatalogRepository,
	gw Gateway,
	tx repository.TxManager,
	log *zap.Logger,
	opts ...PaymentServiceOption,
) *PaymentService {
	service := &PaymentService{
		payments:  payments,
		bookings:  bookings,
		catalog:   catalog,
		gateway:   gw,
		tx:        tx,
		log:       log,
		currency:  "BRL",
		dedupeTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// RecordPayment stores a payment. A Confirmed payment marks the booking Paid whatever its
// current status is.
func (s *PaymentService) RecordPayment(ctx context.Context, input PaymentInput) (*domain.Payment, error) {
	if input.Status == "" {
		input.Status = domain.PaymentStatusPending
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, input.Status)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if input.BookingID == "" || input.CurrencyCode == "" {
		return nil, fmt.Errorf("%w: booking_id and currency_code are required", domain.ErrValidation)
	}

	payment := &domain.Payment{
		ID:                uuid.NewString(),
		BookingID:         input.BookingID,
		Amount:            input.Amount,
		CurrencyCode:      strings.ToUpper(input.CurrencyCode),
		Status:            input.Status,
		ExternalReference: input.ExternalReference,
		Method:            input.Method,
	}
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if booking, err = s.bookings.GetByIDForUpdate(ctx, payment.BookingID); err != nil {
			return err
		}
		if _, err = s.catalog.GetCurrencyByCode(ctx, payment.CurrencyCode); err != nil {
			return err
		}
		if err = s.payments.Create(ctx, payment); err != nil {
			return err
		}
		if payment.Status == domain.PaymentStatusConfirmed {
			booking, err = s.bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusPaid)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("booking_id", payment.BookingID),
		zap.String("status", string(payment.Status)))
	if payment.Status == domain.PaymentStatusConfirmed {
		s.emitPaid(ctx, booking, payment)
	}
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, bookingID string, page repository.Page) ([]domain.Payment, error) {
	return s.payments.List(ctx, bookingID, page)
}

func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, status)
	}

	var (
		payment *domain.Payment
		booking *domain.Booking
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if booking, err = s.bookings.GetByIDForUpdate(ctx, current.BookingID); err != nil {
			return err
		}
		if payment, err = s.payments.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		if status == domain.PaymentStatusConfirmed {
			booking, err = s.bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusPaid)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment status updated", zap.String("payment_id", id), zap.String("status", string(status)))
	if status == domain.PaymentStatusConfirmed {
		s.emitPaid(ctx, booking, payment)
	}
	return payment, nil
}

// StartCheckout asks the gateway for a payable reference covering the booking total.
func (s *PaymentService) StartCheckout(ctx context.Context, bookingID string) (*gateway.Checkout, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled || booking.Status == domain.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidState, bookingID, booking.Status)
	}
	return s.gateway.CreateCheckout(ctx, booking.ID, booking.TotalAmount, s.currency)
}

type softFailure struct {
	reason string
}

func (e *softFailure) Error() string {
	return e.reason
}

func soft(format string, args ...any) error {
	return &softFailure{reason: fmt.Sprintf(format, args...)}
}

// Reconcile applies a gateway notification. Malformed or unresolvable notifications come
// back as a Result with a Reason and leave state untouched, the sender may redeliver them.
// The error return is reserved for storage failures.
func (s *PaymentService) Reconcile(ctx context.Context, n kafka.PaymentNotification) (*Result, error) {
	if n.Type == "" || n.ExternalPaymentID == "" {
		return s.skip(n, "notification is missing type or external payment id"), nil
	}
	if n.Type != "payment" && !strings.HasPrefix(n.Type, "payment.") {
		return s.skip(n, fmt.Sprintf("notification type %q is not a payment", n.Type)), nil
	}

	info, err := s.gateway.LookupPayment(ctx, n.ExternalPaymentID)
	if err != nil {
		return s.skip(n, fmt.Sprintf("gateway lookup failed: %v", err)), nil
	}
	status := domain.MapExternalStatus(info.StatusCode)

	if duplicate, err := s.alreadyApplied(ctx, n.ExternalPaymentID, status); err != nil {
		return nil, err
	} else if duplicate {
		return &Result{Duplicate: true, Reason: "notification already applied", BookingID: info.ExternalReference, Status: status}, nil
	}

	if info.ExternalReference == "" {
		return s.skip(n, "payment carries no booking reference"), nil
	}
	if !info.Amount.IsPositive() {
		return s.skip(n, fmt.Sprintf("payment amount %s is not positive", info.Amount)), nil
	}

	payment := &domain.Payment{
		ID:                uuid.NewString(),
		BookingID:         info.ExternalReference,
		Amount:            info.Amount,
		CurrencyCode:      strings.ToUpper(info.CurrencyCode),
		Status:            status,
		ExternalReference: n.ExternalPaymentID,
		Method:            info.Method,
	}
	var booking *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookings.GetByIDForUpdate(ctx, payment.BookingID)
		if errors.Is(err, domain.ErrNotFound) {
			return soft("booking %s does not exist", payment.BookingID)
		}
		if err != nil {
			return err
		}
		_, err = s.catalog.GetCurrencyByCode(ctx, payment.CurrencyCode)
		if errors.Is(err, domain.ErrNotFound) {
			return soft("currency %q is not registered", payment.CurrencyCode)
		}
		if err != nil {
			return err
		}

		if err = s.payments.Create(ctx, payment); err != nil {
			return err
		}
		if status == domain.PaymentStatusConfirmed {
			booking, err = s.bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusPaid)
		}
		return err
	})
	var sf *softFailure
	if errors.As(err, &sf) {
		return s.skip(n, sf.reason), nil
	}
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent delivery of the same notification committed first.
		return &Result{Duplicate: true, Reason: "notification already applied", BookingID: payment.BookingID, Status: status}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		if err := s.notifications.RememberNotification(ctx, n.ExternalPaymentID, string(status), s.dedupeTTL); err != nil {
			s.log.Warn("failed to remember payment notification", zap.String("external_payment_id", n.ExternalPaymentID), zap.Error(err))
		}
	}

	s.log.Info("payment notification applied",
		zap.String("external_payment_id", n.ExternalPaymentID),
		zap.String("booking_id", payment.BookingID),
		zap.String("status", string(status)))
	if status == domain.PaymentStatusConfirmed {
		s.emitPaid(ctx, booking, payment)
	}
	return &Result{Applied: true, BookingID: payment.BookingID, PaymentID: payment.ID, Status: status}, nil
}

// alreadyApplied consults the redis log first and falls back to the payments table, so a
// lost cache entry never causes a double apply.
func (s *PaymentService) alreadyApplied(ctx context.Context, externalID string, status domain.PaymentStatus) (bool, error) {
	if s.notifications != nil {
		seen, err := s.notifications.NotificationSeen(ctx, externalID, string(status))
		if err != nil {
			s.log.Warn("notification log unavailable", zap.String("external_payment_id", externalID), zap.Error(err))
		} else if seen {
			return true, nil
		}
	}
	existing, err := s.payments.FindByExternalReference(ctx, externalID, status)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *PaymentService) skip(n kafka.PaymentNotification, reason string) *Result {
	s.log.Warn("payment notification skipped",
		zap.String("type", n.Type),
		zap.String("external_payment_id", n.ExternalPaymentID),
		zap.String("reason", reason))
	return &Result{Reason: reason}
}

func (s *PaymentService) emitPaid(ctx context.Context, booking *domain.Booking, payment *domain.Payment) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, kafka.Event{
		Type:       kafka.EventBookingPaid,
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		Status:     string(booking.Status),
		Seat:       booking.Seat,
		Amount:     payment.Amount.StringFixed(2),
	})
}

var _ PaymentUseCase = (*PaymentService)(nil)
