package passengers

import (
	"context"
	"fmt"
	"testing"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService() (*PassengerService, *mocks.PassengerRepository, *mocks.TripRepository, *mocks.CustomerRepository) {
	passengers := &mocks.PassengerRepository{}
	trips := &mocks.TripRepository{}
	customers := &mocks.CustomerRepository{}
	return NewPassengerService(passengers, trips, customers, &mocks.TxManager{}, zap.NewNop()), passengers, trips, customers
}

func trip(status domain.TripStatus, capacity, attached int) *domain.Trip {
	return &domain.Trip{ID: "t-1", Status: status, Capacity: capacity, PassengerCount: attached}
}

var readyCustomer = &domain.Customer{
	ID:                  "c-1",
	MedicalStatus:       domain.MedicalStatusApproved,
	CertificationStatus: domain.CertificationStatusCompleted,
}

func TestPassengerService_AddPassenger(t *testing.T) {
	service, passengers, trips, customers := newService()
	trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(domain.TripStatusScheduled, 3, 1), nil).Once()
	customers.On("GetByID", mock.Anything, "c-1").Return(readyCustomer, nil).Once()
	passengers.On("CountByTrip", mock.Anything, "t-1").Return(1, nil).Once()
	passengers.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Passenger) bool {
		return p.TripID == "t-1" && p.CustomerID == "c-1" && p.Seat == "2B" && p.BoardingStatus == domain.BoardingStatusPending
	})).Return(nil).Once()

	passenger, err := service.AddPassenger(context.Background(), PassengerInput{TripID: "t-1", CustomerID: "c-1", Seat: "2B"})
	require.NoError(t, err)
	assert.NotEmpty(t, passenger.ID)
	assert.Equal(t, domain.BoardingStatusPending, passenger.BoardingStatus)
	passengers.AssertExpectations(t)
}

func TestPassengerService_AddPassenger_Failures(t *testing.T) {
	notReady := &domain.Customer{ID: "c-1", MedicalStatus: domain.MedicalStatusPending, CertificationStatus: domain.CertificationStatusCompleted}

	testCases := []struct {
		name     string
		trip     *domain.Trip
		customer *domain.Customer
		count    int
		expected error
	}{
		{"cancelled trip", trip(domain.TripStatusCancelled, 3, 0), readyCustomer, -1, domain.ErrInvalidState},
		{"completed trip", trip(domain.TripStatusCompleted, 3, 0), readyCustomer, -1, domain.ErrInvalidState},
		{"roster at capacity", trip(domain.TripStatusScheduled, 2, 0), readyCustomer, 2, domain.ErrCapacityExceeded},
		{"no seats left after attachments", trip(domain.TripStatusScheduled, 2, 2), readyCustomer, 0, domain.ErrCapacityExceeded},
		{"ineligible customer", trip(domain.TripStatusScheduled, 2, 0), notReady, 0, domain.ErrIneligibleCustomer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, passengers, trips, customers := newService()
			trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(tc.trip, nil).Once()
			customers.On("GetByID", mock.Anything, "c-1").Return(tc.customer, nil).Once()
			if tc.count >= 0 {
				passengers.On("CountByTrip", mock.Anything, "t-1").Return(tc.count, nil).Once()
			}

			_, err := service.AddPassenger(context.Background(), PassengerInput{TripID: "t-1", CustomerID: "c-1"})
			assert.ErrorIs(t, err, tc.expected)
			passengers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestPassengerService_AddPassenger_NotFound(t *testing.T) {
	service, _, trips, customers := newService()
	trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(domain.TripStatusScheduled, 2, 0), nil).Once()
	customers.On("GetByID", mock.Anything, "ghost").Return(nil, fmt.Errorf("%w: customer ghost", domain.ErrNotFound)).Once()

	_, err := service.AddPassenger(context.Background(), PassengerInput{TripID: "t-1", CustomerID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPassengerService_AddPassenger_Duplicate(t *testing.T) {
	service, passengers, trips, customers := newService()
	trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(domain.TripStatusScheduled, 3, 0), nil).Once()
	customers.On("GetByID", mock.Anything, "c-1").Return(readyCustomer, nil).Once()
	passengers.On("CountByTrip", mock.Anything, "t-1").Return(1, nil).Once()
	passengers.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("%w: customer c-1 is already on trip t-1", domain.ErrConflict)).Once()

	_, err := service.AddPassenger(context.Background(), PassengerInput{TripID: "t-1", CustomerID: "c-1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPassengerService_AddPassenger_MissingIDs(t *testing.T) {
	service, _, trips, _ := newService()

	_, err := service.AddPassenger(context.Background(), PassengerInput{TripID: "t-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	trips.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestPassengerService_UpdatePassenger(t *testing.T) {
	confirmed := domain.BoardingStatusConfirmed
	boarded := domain.BoardingStatusBoarded
	seat := "4C"

	testCases := []struct {
		name     string
		from     domain.BoardingStatus
		trip     domain.TripStatus
		patch    PassengerPatch
		expected error
	}{
		{"pending to confirmed", domain.BoardingStatusPending, domain.TripStatusScheduled, PassengerPatch{BoardingStatus: &confirmed}, nil},
		{"seat change in flight", domain.BoardingStatusBoarded, domain.TripStatusInProgress, PassengerPatch{Seat: &seat}, nil},
		{"pending cannot skip to boarded", domain.BoardingStatusPending, domain.TripStatusScheduled, PassengerPatch{BoardingStatus: &boarded}, domain.ErrInvalidState},
		{"completed trip", domain.BoardingStatusPending, domain.TripStatusCompleted, PassengerPatch{Seat: &seat}, domain.ErrInvalidState},
		{"cancelled trip", domain.BoardingStatusPending, domain.TripStatusCancelled, PassengerPatch{Seat: &seat}, domain.ErrInvalidState},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, passengers, trips, _ := newService()
			passengers.On("GetByID", mock.Anything, "p-1").Return(&domain.Passenger{ID: "p-1", TripID: "t-1", BoardingStatus: tc.from}, nil).Once()
			trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(tc.trip, 2, 0), nil).Once()
			if tc.expected == nil {
				passengers.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
			}

			passenger, err := service.UpdatePassenger(context.Background(), "p-1", tc.patch)
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
				passengers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			if tc.patch.BoardingStatus != nil {
				assert.Equal(t, *tc.patch.BoardingStatus, passenger.BoardingStatus)
			}
			if tc.patch.Seat != nil {
				assert.Equal(t, *tc.patch.Seat, passenger.Seat)
			}
		})
	}
}

func TestPassengerService_RemovePassenger(t *testing.T) {
	for _, status := range []domain.TripStatus{domain.TripStatusInProgress, domain.TripStatusCompleted, domain.TripStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			service, passengers, trips, _ := newService()
			passengers.On("GetByID", mock.Anything, "p-1").Return(&domain.Passenger{ID: "p-1", TripID: "t-1"}, nil).Once()
			trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(status, 2, 0), nil).Once()

			err := service.RemovePassenger(context.Background(), "p-1")
			assert.ErrorIs(t, err, domain.ErrInvalidState)
			passengers.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		})
	}

	t.Run("scheduled", func(t *testing.T) {
		service, passengers, trips, _ := newService()
		passengers.On("GetByID", mock.Anything, "p-1").Return(&domain.Passenger{ID: "p-1", TripID: "t-1"}, nil).Once()
		trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip(domain.TripStatusScheduled, 2, 0), nil).Once()
		passengers.On("Delete", mock.Anything, "p-1").Return(nil).Once()

		require.NoError(t, service.RemovePassenger(context.Background(), "p-1"))
		passengers.AssertExpectations(t)
	})
}

func TestPassengerService_ListPassengers(t *testing.T) {
	service, passengers, _, _ := newService()
	page := repository.Page{Limit: 10}
	passengers.On("List", mock.Anything, "t-1", page).Return([]domain.Passenger{{ID: "p-1"}, {ID: "p-2"}}, nil).Once()

	list, err := service.ListPassengers(context.Background(), "t-1", page)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
