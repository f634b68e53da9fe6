// Package passengers manages the trip-local roster. Roster entries track seats and boarding
// independently of booking attachments and payments.
package passengers

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PassengerUseCase interface {
	AddPassenger(ctx context.Context, input PassengerInput) (*domain.Passenger, error)
	GetPassenger(ctx context.Context, id string) (*domain.Passenger, error)
	ListPassengers(ctx context.Context, tripID string, page repository.Page) ([]domain.Passenger, error)
	UpdatePassenger(ctx context.Context, id string, patch PassengerPatch) (*domain.Passenger, error)
	RemovePassenger(ctx context.Context, id string) error
}

type PassengerInput struct {
	TripID     string `json:"trip_id"`
	CustomerID string `json:"customer_id"`
	Seat       string `json:"seat"`
	Notes      string `json:"notes"`
}

type PassengerPatch struct {
	Seat           *string                `json:"seat"`
	Notes          *string                `json:"notes"`
	BoardingStatus *domain.BoardingStatus `json:"boarding_status"`
}

type PassengerService struct {
	passengers repository.PassengerRepository
	trips      repository.TripRepository
	customers  repository.CustomerRepository
	tx         repository.TxManager
	log        *zap.Logger
}

func NewPassengerService(
	passengers repository.PassengerRepository,
	trips repository.TripRepository,
	customers repository.CustomerRepository,
	tx repository.TxManager,
	log *zap.Logger,
) *PassengerService {
	return &PassengerService{
		passengers: passengers,
		trips:      trips,
		customers:  customers,
		tx:         tx,
		log:        log,
	}
}

// AddPassenger puts a customer on a trip roster. The roster is bounded by the trip capacity
// and by the seats still free after booking attachments.
func (s *PassengerService) AddPassenger(ctx context.Context, input PassengerInput) (*domain.Passenger, error) {
	if input.TripID == "" || input.CustomerID == "" {
		return nil, fmt.Errorf("%w: trip_id and customer_id are required", domain.ErrValidation)
	}

	var passenger *domain.Passenger
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		trip, err := s.trips.GetByIDForUpdate(ctx, input.TripID)
		if err != nil {
			return err
		}
		customer, err := s.customers.GetByID(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !trip.Mutable() {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrInvalidState, trip.ID, trip.Status)
		}

		onRoster, err := s.passengers.CountByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if onRoster >= trip.Capacity || trip.AvailableSeats() <= 0 {
			return fmt.Errorf("%w: trip %s roster is full", domain.ErrCapacityExceeded, trip.ID)
		}
		if !customer.IsEligible() {
			return fmt.Errorf("%w: customer %s has not cleared medical and certification checks", domain.ErrIneligibleCustomer, customer.ID)
		}

		passenger = &domain.Passenger{
			ID:             uuid.NewString(),
			TripID:         trip.ID,
			CustomerID:     customer.ID,
			Seat:           input.Seat,
			Notes:          input.Notes,
			BoardingStatus: domain.BoardingStatusPending,
		}
		return s.passengers.Create(ctx, passenger)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("passenger added",
		zap.String("passenger_id", passenger.ID),
		zap.String("trip_id", passenger.TripID),
		zap.String("customer_id", passenger.CustomerID))
	return passenger, nil
}

func (s *PassengerService) GetPassenger(ctx context.Context, id string) (*domain.Passenger, error) {
	return s.passengers.GetByID(ctx, id)
}

func (s *PassengerService) ListPassengers(ctx context.Context, tripID string, page repository.Page) ([]domain.Passenger, error) {
	return s.passengers.List(ctx, tripID, page)
}

func (s *PassengerService) UpdatePassenger(ctx context.Context, id string, patch PassengerPatch) (*domain.Passenger, error) {
	var passenger *domain.Passenger
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.passengers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trip, err := s.trips.GetByIDForUpdate(ctx, current.TripID)
		if err != nil {
			return err
		}
		if !trip.Mutable() {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrInvalidState, trip.ID, trip.Status)
		}

		if patch.Seat != nil {
			current.Seat = *patch.Seat
		}
		if patch.Notes != nil {
			current.Notes = *patch.Notes
		}
		if patch.BoardingStatus != nil && *patch.BoardingStatus != current.BoardingStatus {
			if !domain.CanTransitionBoarding(current.BoardingStatus, *patch.BoardingStatus) {
				return fmt.Errorf("%w: boarding status cannot move from %s to %s",
					domain.ErrInvalidState, current.BoardingStatus, *patch.BoardingStatus)
			}
			current.BoardingStatus = *patch.BoardingStatus
		}

		if err := s.passengers.Update(ctx, current); err != nil {
			return err
		}
		passenger = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("passenger updated",
		zap.String("passenger_id", passenger.ID),
		zap.String("boarding_status", string(passenger.BoardingStatus)))
	return passenger, nil
}

// RemovePassenger is allowed only while the trip has not departed.
func (s *PassengerService) RemovePassenger(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		passenger, err := s.passengers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trip, err := s.trips.GetByIDForUpdate(ctx, passenger.TripID)
		if err != nil {
			return err
		}
		if trip.Status != domain.TripStatusScheduled {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrInvalidState, trip.ID, trip.Status)
		}
		if err := s.passengers.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("passenger removed", zap.String("passenger_id", id), zap.String("trip_id", trip.ID))
		return nil
	})
}

var _ PassengerUseCase = (*PassengerService)(nil)
