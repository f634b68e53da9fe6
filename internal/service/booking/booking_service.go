package booking

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/pricing"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*Details, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch Patch) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
}

type Events interface {
	Emit(ctx context.Context, events ...kafka.Event)
}

type CreateBookingInput struct {
	CustomerID string `json:"customer_id"`
	PackageID  string `json:"package_id"`
	Seat       string `json:"seat"`
}

// Patch is the generic update. Status is accepted only so it can be rejected: status
// changes go through the named transitions.
type Patch struct {
	Seat   *string               `json:"seat"`
	Status *domain.BookingStatus `json:"status"`
}

// Details is a booking with its payments and trip attachments.
type Details struct {
	Booking  domain.Booking          `json:"booking"`
	Payments []domain.Payment        `json:"payments"`
	Trips    []domain.TripAttachment `json:"trips"`
}

type BookingService struct {
	bookings  repository.BookingRepository
	customers repository.CustomerRepository
	catalog   repository.CatalogRepository
	payments  repository.PaymentRepository
	trips     repository.TripRepository
	pricing   *pricing.Engine
	tx        repository.TxManager
	events    Events
	log       *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithEvents(events Events) BookingServiceOption {
	return func(s *BookingService) {
		s.events = events
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	customers repository.CustomerRepository,
	catalog repository.CatalogRepository,
	payments repository.PaymentRepository,
	trips repository.TripRepository,
	engine *pricing.Engine,
	tx repository.TxManager,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:  bookings,
		customers: customers,
		catalog:   catalog,
		payments:  payments,
		trips:     trips,
		pricing:   engine,
		tx:        tx,
		log:       log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking prices the package for the customer's country and reserves it. Eligibility
// is checked here once and never re-evaluated for this booking.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.CustomerID == "" || input.PackageID == "" {
		return nil, fmt.Errorf("%w: customer_id and package_id are required", domain.ErrValidation)
	}

	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		pkg, err := s.catalog.GetPackage(ctx, input.PackageID)
		if err != nil {
			return err
		}
		if !pkg.Available {
			return fmt.Errorf("%w: package %s is not available", domain.ErrConflict, pkg.ID)
		}
		if !customer.IsEligible() {
			return fmt.Errorf("%w: customer %s has medical status %s and certification status %s",
				domain.ErrIneligibleCustomer, customer.ID, customer.MedicalStatus, customer.CertificationStatus)
		}

		quote, err := s.pricing.Price(ctx, pkg.Price, customer.Country)
		if err != nil {
			return err
		}

		booking = &domain.Booking{
			ID:             uuid.NewString(),
			CustomerID:     customer.ID,
			PackageID:      pkg.ID,
			Status:         domain.BookingStatusReserved,
			OriginalAmount: quote.Original,
			TaxAmount:      quote.Tax,
			TotalAmount:    quote.Total,
			Seat:           input.Seat,
		}
		return s.bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("customer_id", booking.CustomerID),
		zap.String("total", booking.TotalAmount.StringFixed(2)))
	s.emit(ctx, bookingEvent(kafka.EventBookingCreated, booking))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*Details, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.List(ctx, id, repository.Page{})
	if err != nil {
		return nil, err
	}
	trips, err := s.trips.ListBookingAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Details{Booking: *booking, Payments: payments, Trips: trips}, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, filter.Status)
	}
	return s.bookings.List(ctx, filter)
}

func (s *BookingService) UpdateBooking(ctx context.Context, id string, patch Patch) (*domain.Booking, error) {
	if patch.Status != nil {
		return nil, fmt.Errorf("%w: status cannot be changed through update, use the cancel, payment or trip operations", domain.ErrValidation)
	}
	if patch.Seat == nil {
		return s.bookings.GetByID(ctx, id)
	}
	return s.bookings.UpdateSeat(ctx, id, *patch.Seat)
}

// CancelBooking is the customer-facing cancel. Only Reserved bookings may be cancelled
// here; paid bookings leave through the trip cascade.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	var (
		booking   *domain.Booking
		cancelled bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.bookings.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == domain.BookingStatusCancelled {
			booking = current
			return nil
		}
		if !domain.CanTransitionBooking(current.Status, domain.BookingStatusCancelled) {
			return fmt.Errorf("%w: booking %s is %s and can no longer be cancelled", domain.ErrInvalidState, id, current.Status)
		}

		booking, err = s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled)
		cancelled = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		s.log.Info("booking cancelled", zap.String("booking_id", id))
		s.emit(ctx, bookingEvent(kafka.EventBookingCancelled, booking))
	}
	return booking, nil
}

func (s *BookingService) emit(ctx context.Context, events ...kafka.Event) {
	if s.events != nil {
		s.events.Emit(ctx, events...)
	}
}

func bookingEvent(eventType string, b *domain.Booking) kafka.Event {
	return kafka.Event{
		Type:       eventType,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		Status:     string(b.Status),
		Seat:       b.Seat,
		Amount:     b.TotalAmount.StringFixed(2),
	}
}

var _ BookingUseCase = (*BookingService)(nil)
