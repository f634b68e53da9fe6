package trips

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TripUseCase interface {
	CreateTrip(ctx context.Context, input TripInput) (*domain.Trip, error)
	GetTrip(ctx context.Context, id string) (*Details, error)
	ListTrips(ctx context.Context, filter repository.TripFilter) ([]domain.Trip, error)
	UpdateTrip(ctx context.Context, id string, patch TripPatch) (*domain.Trip, error)

	AttachBooking(ctx context.Context, tripID, bookingID, seat string) (*domain.TripAttachment, error)
	DetachBooking(ctx context.Context, tripID, bookingID string) error

	StartTrip(ctx context.Context, id string) (*domain.Trip, error)
	CompleteTrip(ctx context.Context, id string) (*domain.Trip, error)
	CancelTrip(ctx context.Context, id string) (*domain.Trip, error)

	Manifest(ctx context.Context, tripID string) ([]domain.ManifestEntry, error)
	ExportManifest(ctx context.Context, tripID string) ([]byte, error)
}

type Events interface {
	Emit(ctx context.Context, events ...kafka.Event)
}

type TripInput struct {
	PackageID     string    `json:"package_id"`
	DepartureAt   time.Time `json:"departure_at"`
	DurationHours int       `json:"duration_hours"`
	Description   string    `json:"description"`
	Capacity      int       `json:"capacity"`
}

type TripPatch struct {
	DepartureAt   *time.Time `json:"departure_at"`
	DurationHours *int       `json:"duration_hours"`
	Description   *string    `json:"description"`
	Capacity      *int       `json:"capacity"`
}

type Details struct {
	Trip        domain.Trip             `json:"trip"`
	Attachments []domain.TripAttachment `json:"attachments"`
}

type TripService struct {
	trips     repository.TripRepository
	bookings  repository.BookingRepository
	customers repository.CustomerRepository
	catalog   repository.CatalogRepository
	tx        repository.TxManager
	events    Events
	log       *zap.Logger
	now       func() time.Time
}

type TripServiceOption func(*TripService)

func WithEvents(events Events) TripServiceOption {
	return func(s *TripService) {
		s.events = events
	}
}

func WithClock(now func() time.Time) TripServiceOption {
	return func(s *TripService) {
		s.now = now
	}
}

func NewTripService(
	trips repository.TripRepository,
	bookings repository.BookingRepository,
	customers repository.CustomerRepository,
	catalog repository.CatalogRepository,
	tx repository.TxManager,
	log *zap.Logger,
	opts ...TripServiceOption,
) *TripService {
	service := &TripService{
		trips:     trips,
		bookings:  bookings,
		customers: customers,
		catalog:   catalog,
		tx:        tx,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *TripService) CreateTrip(ctx context.Context, input TripInput) (*domain.Trip, error) {
	if input.Capacity == 0 {
		input.Capacity = 1
	}
	if err := s.validateSchedule(input.DepartureAt, input.DurationHours); err != nil {
		return nil, err
	}
	if input.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	}
	if _, err := s.catalog.GetPackage(ctx, input.PackageID); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:            uuid.NewString(),
		PackageID:     input.PackageID,
		DepartureAt:   input.DepartureAt.UTC(),
		DurationHours: input.DurationHours,
		Description:   input.Description,
		Status:        domain.TripStatusScheduled,
		Capacity:      input.Capacity,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.log.Info("trip scheduled", zap.String("trip_id", trip.ID), zap.Time("departure_at", trip.DepartureAt))
	return trip, nil
}

func (s *TripService) validateSchedule(departure time.Time, durationHours int) error {
	if !departure.After(s.now()) {
		return fmt.Errorf("%w: departure must be in the future", domain.ErrValidation)
	}
	if durationHours <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of hours", domain.ErrValidation)
	}
	return nil
}

func (s *TripService) GetTrip(ctx context.Context, id string) (*Details, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.trips.ListAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Details{Trip: *trip, Attachments: attachments}, nil
}

func (s *TripService) ListTrips(ctx context.Context, filter repository.TripFilter) ([]domain.Trip, error) {
	return s.trips.List(ctx, filter)
}

func (s *TripService) UpdateTrip(ctx context.Context, id string, patch TripPatch) (*domain.Trip, error) {
	var trip *domain.Trip
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Mutable() {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrInvalidState, id, current.Status)
		}

		if patch.DepartureAt != nil {
			current.DepartureAt = patch.DepartureAt.UTC()
		}
		if patch.DurationHours != nil {
			current.DurationHours = *patch.DurationHours
		}
		if patch.Description != nil {
			current.Description = *patch.Description
		}
		if patch.Capacity != nil {
			current.Capacity = *patch.Capacity
		}

		if patch.DepartureAt != nil && !current.DepartureAt.After(s.now()) {
			return fmt.Errorf("%w: departure must be in the future", domain.ErrValidation)
		}
		if current.DurationHours <= 0 {
			return fmt.Errorf("%w: duration must be a positive number of hours", domain.ErrValidation)
		}
		if current.Capacity < 1 || current.Capacity < current.PassengerCount {
			return fmt.Errorf("%w: capacity %d is below the %d attached passengers", domain.ErrValidation, current.Capacity, current.PassengerCount)
		}

		if err := s.trips.Update(ctx, current); err != nil {
			return err
		}
		trip = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// AttachBooking puts a paid booking on a scheduled trip. The trip row stays locked from the
// capacity check to the insert, so concurrent attaches to the last seat cannot both win.
func (s *TripService) AttachBooking(ctx context.Context, tripID, bookingID, seat string) (*domain.TripAttachment, error) {
	var (
		attachment *domain.TripAttachment
		booking    *domain.Booking
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		trip, err := s.trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		booking, err = s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if trip.Status != domain.TripStatusScheduled {
			return fmt.Errorf("%w: trip %s is %s, bookings attach only to scheduled trips", domain.ErrInvalidState, tripID, trip.Status)
		}
		if booking.Status != domain.BookingStatusPaid {
			return fmt.Errorf("%w: booking %s is %s, only paid bookings can be attached", domain.ErrInvalidState, bookingID, booking.Status)
		}
		if booking.PackageID != trip.PackageID {
			return fmt.Errorf("%w: booking %s is for package %s, trip %s flies package %s",
				domain.ErrConflict, bookingID, booking.PackageID, tripID, trip.PackageID)
		}

		attached, err := s.trips.IsAttached(ctx, tripID, bookingID)
		if err != nil {
			return err
		}
		if attached {
			return fmt.Errorf("%w: booking %s is already attached to trip %s", domain.ErrConflict, bookingID, tripID)
		}
		active, err := s.trips.ActiveTripForBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if active != "" {
			return fmt.Errorf("%w: booking %s is already attached to active trip %s", domain.ErrConflict, bookingID, active)
		}

		if trip.AvailableSeats() <= 0 {
			return fmt.Errorf("%w: trip %s has all %d seats taken", domain.ErrCapacityExceeded, tripID, trip.Capacity)
		}

		customer, err := s.customers.GetByID(ctx, booking.CustomerID)
		if err != nil {
			return err
		}
		if !customer.IsEligible() {
			return fmt.Errorf("%w: customer %s is no longer eligible to travel", domain.ErrIneligibleCustomer, customer.ID)
		}

		// Without a seat the attachment inherits the booking's label, which is left untouched.
		attachment = &domain.TripAttachment{TripID: tripID, BookingID: bookingID, Seat: seat}
		if seat == "" {
			attachment.Seat = booking.Seat
		}
		if err := s.trips.Attach(ctx, attachment); err != nil {
			return err
		}
		if seat == "" {
			return nil
		}
		booking, err = s.bookings.UpdateSeat(ctx, bookingID, seat)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking attached", zap.String("trip_id", tripID), zap.String("booking_id", bookingID), zap.String("seat", attachment.Seat))
	s.emit(ctx, kafka.Event{
		Type:       kafka.EventBookingAttached,
		BookingID:  bookingID,
		TripID:     tripID,
		CustomerID: booking.CustomerID,
		Status:     string(booking.Status),
		Seat:       attachment.Seat,
	})
	return attachment, nil
}

// DetachBooking removes the association only. The booking keeps its status.
func (s *TripService) DetachBooking(ctx context.Context, tripID, bookingID string) error {
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		trip, err := s.trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if booking, err = s.bookings.GetByID(ctx, bookingID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusScheduled {
			return fmt.Errorf("%w: trip %s is %s, bookings detach only from scheduled trips", domain.ErrInvalidState, tripID, trip.Status)
		}

		removed, err := s.trips.Detach(ctx, tripID, bookingID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: booking %s is not attached to trip %s", domain.ErrConflict, bookingID, tripID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("booking detached", zap.String("trip_id", tripID), zap.String("booking_id", bookingID))
	s.emit(ctx, kafka.Event{
		Type:       kafka.EventBookingDetached,
		BookingID:  bookingID,
		TripID:     tripID,
		CustomerID: booking.CustomerID,
		Status:     string(booking.Status),
	})
	return nil
}

func (s *TripService) StartTrip(ctx context.Context, id string) (*domain.Trip, error) {
	return s.transition(ctx, id, domain.TripStatusInProgress, kafka.EventTripStarted)
}

func (s *TripService) CompleteTrip(ctx context.Context, id string) (*domain.Trip, error) {
	return s.transition(ctx, id, domain.TripStatusCompleted, kafka.EventTripCompleted)
}

func (s *TripService) CancelTrip(ctx context.Context, id string) (*domain.Trip, error) {
	return s.transition(ctx, id, domain.TripStatusCancelled, kafka.EventTripCancelled)
}

// transition moves the trip and cascades the matching status onto every attached booking
// inside one transaction.
func (s *TripService) transition(ctx context.Context, id string, to domain.TripStatus, eventType string) (*domain.Trip, error) {
	var (
		trip     *domain.Trip
		cascaded []domain.Booking
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransitionTrip(current.Status, to) {
			return fmt.Errorf("%w: trip %s cannot move from %s to %s", domain.ErrInvalidState, id, current.Status, to)
		}
		if to == domain.TripStatusInProgress && current.PassengerCount == 0 {
			return fmt.Errorf("%w: trip %s has no attached bookings", domain.ErrInvalidState, id)
		}

		if err := s.trips.UpdateStatus(ctx, id, to); err != nil {
			return err
		}
		if status, ok := domain.CascadeStatus(to); ok {
			if cascaded, err = s.trips.CascadeBookingStatus(ctx, id, status); err != nil {
				return err
			}
		}
		current.Status = to
		trip = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("trip status changed",
		zap.String("trip_id", id),
		zap.String("status", string(to)),
		zap.Int("bookings", len(cascaded)))

	events := make([]kafka.Event, 0, len(cascaded)+1)
	for _, b := range cascaded {
		events = append(events, kafka.Event{
			Type:       eventType,
			TripID:     id,
			BookingID:  b.ID,
			CustomerID: b.CustomerID,
			Status:     string(b.Status),
			Seat:       b.Seat,
		})
	}
	if len(events) == 0 {
		events = append(events, kafka.Event{Type: eventType, TripID: id, Status: string(to)})
	}
	s.emit(ctx, events...)
	return trip, nil
}

func (s *TripService) Manifest(ctx context.Context, tripID string) ([]domain.ManifestEntry, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.trips.Manifest(ctx, tripID)
}

// ExportManifest renders the manifest as CSV with a header row.
func (s *TripService) ExportManifest(ctx context.Context, tripID string) ([]byte, error) {
	entries, err := s.Manifest(ctx, tripID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"booking_id", "customer_id", "seat", "status", "attached_at"})
	for _, e := range entries {
		_ = w.Write([]string{e.BookingID, e.CustomerID, e.Seat, string(e.BookingStatus), e.AttachedAt.UTC().Format(time.RFC3339)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *TripService) emit(ctx context.Context, events ...kafka.Event) {
	if s.events != nil {
		s.events.Emit(ctx, events...)
	}
}

var _ TripUseCase = (*TripService)(nil)
