package trips

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/kafka/kafkatest"
	"github.com/Domenick1991/spacebooking/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service   *TripService
	trips     *mocks.TripRepository
	bookings  *mocks.BookingRepository
	customers *mocks.CustomerRepository
	catalog   *mocks.CatalogRepository
	tx        *mocks.TxManager
	events    *kafkatest.Recorder
}

func newFixture() *fixture {
	f := &fixture{
		trips:     &mocks.TripRepository{},
		bookings:  &mocks.BookingRepository{},
		customers: &mocks.CustomerRepository{},
		catalog:   &mocks.CatalogRepository{},
		tx:        &mocks.TxManager{},
		events:    &kafkatest.Recorder{},
	}
	f.service = NewTripService(f.trips, f.bookings, f.customers, f.catalog, f.tx, zap.NewNop(),
		WithEvents(f.events), WithClock(func() time.Time { return now }))
	return f
}

func scheduledTrip(capacity, passengers int) *domain.Trip {
	return &domain.Trip{
		ID:             "t-1",
		PackageID:      "pkg-1",
		DepartureAt:    now.Add(72 * time.Hour),
		DurationHours:  4,
		Status:         domain.TripStatusScheduled,
		Capacity:       capacity,
		PassengerCount: passengers,
	}
}

func paidBooking(id string) *domain.Booking {
	return &domain.Booking{ID: id, CustomerID: "c-" + id, PackageID: "pkg-1", Status: domain.BookingStatusPaid}
}

func eligible(id string) *domain.Customer {
	return &domain.Customer{ID: id, MedicalStatus: domain.MedicalStatusApproved, CertificationStatus: domain.CertificationStatusCompleted}
}

func TestTripService_CreateTrip(t *testing.T) {
	f := newFixture()
	f.catalog.On("GetPackage", mock.Anything, "pkg-1").Return(&domain.Package{ID: "pkg-1"}, nil).Once()
	f.trips.On("Create", mock.Anything, mock.MatchedBy(func(trip *domain.Trip) bool {
		return trip.Capacity == 1 && trip.Status == domain.TripStatusScheduled
	})).Return(nil).Once()

	trip, err := f.service.CreateTrip(context.Background(), TripInput{PackageID: "pkg-1", DepartureAt: now.Add(time.Hour), DurationHours: 3})
	require.NoError(t, err)
	assert.Equal(t, now.Add(4*time.Hour), trip.ReturnAt())
	f.trips.AssertExpectations(t)
}

func TestTripService_CreateTrip_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input TripInput
	}{
		{"past departure", TripInput{PackageID: "pkg-1", DepartureAt: now.Add(-time.Minute), DurationHours: 2}},
		{"departure now", TripInput{PackageID: "pkg-1", DepartureAt: now, DurationHours: 2}},
		{"zero duration", TripInput{PackageID: "pkg-1", DepartureAt: now.Add(time.Hour)}},
		{"negative capacity", TripInput{PackageID: "pkg-1", DepartureAt: now.Add(time.Hour), DurationHours: 2, Capacity: -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.CreateTrip(context.Background(), tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			f.trips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_CreateTrip_UnknownPackage(t *testing.T) {
	f := newFixture()
	f.catalog.On("GetPackage", mock.Anything, "nope").Return(nil, fmt.Errorf("%w: package nope", domain.ErrNotFound)).Once()

	_, err := f.service.CreateTrip(context.Background(), TripInput{PackageID: "nope", DepartureAt: now.Add(time.Hour), DurationHours: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_AttachBooking(t *testing.T) {
	f := newFixture()
	booking := paidBooking("b-1")

	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(booking, nil).Once()
	f.trips.On("IsAttached", mock.Anything, "t-1", "b-1").Return(false, nil).Once()
	f.trips.On("ActiveTripForBooking", mock.Anything, "b-1").Return("", nil).Once()
	f.customers.On("GetByID", mock.Anything, "c-b-1").Return(eligible("c-b-1"), nil).Once()
	f.trips.On("Attach", mock.Anything, mock.MatchedBy(func(a *domain.TripAttachment) bool {
		return a.TripID == "t-1" && a.BookingID == "b-1" && a.Seat == "1A"
	})).Return(nil).Once()
	f.bookings.On("UpdateSeat", mock.Anything, "b-1", "1A").Return(&domain.Booking{ID: "b-1", CustomerID: "c-b-1", Status: domain.BookingStatusPaid, Seat: "1A"}, nil).Once()

	attachment, err := f.service.AttachBooking(context.Background(), "t-1", "b-1", "1A")
	require.NoError(t, err)
	assert.Equal(t, "1A", attachment.Seat)
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, []string{kafka.EventBookingAttached}, f.events.Types())
	f.trips.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
}

func TestTripService_AttachBooking_KeepsBookingSeat(t *testing.T) {
	f := newFixture()
	booking := paidBooking("b-1")
	booking.Seat = "7C"

	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 0), nil).Once()
	f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(booking, nil).Once()
	f.trips.On("IsAttached", mock.Anything, "t-1", "b-1").Return(false, nil).Once()
	f.trips.On("ActiveTripForBooking", mock.Anything, "b-1").Return("", nil).Once()
	f.customers.On("GetByID", mock.Anything, "c-b-1").Return(eligible("c-b-1"), nil).Once()
	f.trips.On("Attach", mock.Anything, mock.MatchedBy(func(a *domain.TripAttachment) bool {
		return a.BookingID == "b-1" && a.Seat == "7C"
	})).Return(nil).Once()

	attachment, err := f.service.AttachBooking(context.Background(), "t-1", "b-1", "")
	require.NoError(t, err)
	assert.Equal(t, "7C", attachment.Seat)
	f.bookings.AssertNotCalled(t, "UpdateSeat", mock.Anything, mock.Anything, mock.Anything)
	f.trips.AssertExpectations(t)
	assert.Equal(t, []string{kafka.EventBookingAttached}, f.events.Types())
}

func TestTripService_AttachBooking_CapacityExceeded(t *testing.T) {
	f := newFixture()

	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 2), nil).Once()
	f.bookings.On("GetByIDForUpdate", mock.Anything, "b-3").Return(paidBooking("b-3"), nil).Once()
	f.trips.On("IsAttached", mock.Anything, "t-1", "b-3").Return(false, nil).Once()
	f.trips.On("ActiveTripForBooking", mock.Anything, "b-3").Return("", nil).Once()

	_, err := f.service.AttachBooking(context.Background(), "t-1", "b-3", "3A")
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	f.trips.AssertNotCalled(t, "Attach", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.Types())
}

func TestTripService_AttachBooking_Preconditions(t *testing.T) {
	inProgress := scheduledTrip(2, 0)
	inProgress.Status = domain.TripStatusInProgress
	reserved := paidBooking("b-1")
	reserved.Status = domain.BookingStatusReserved
	otherPackage := paidBooking("b-1")
	otherPackage.PackageID = "pkg-2"

	testCases := []struct {
		name     string
		trip     *domain.Trip
		booking  *domain.Booking
		setup    func(f *fixture)
		expected error
	}{
		{"trip not scheduled", inProgress, paidBooking("b-1"), nil, domain.ErrInvalidState},
		{"booking not paid", scheduledTrip(2, 0), reserved, nil, domain.ErrInvalidState},
		{"package mismatch", scheduledTrip(2, 0), otherPackage, nil, domain.ErrConflict},
		{"already attached", scheduledTrip(2, 1), paidBooking("b-1"), func(f *fixture) {
			f.trips.On("IsAttached", mock.Anything, "t-1", "b-1").Return(true, nil).Once()
		}, domain.ErrConflict},
		{"attached to another active trip", scheduledTrip(2, 0), paidBooking("b-1"), func(f *fixture) {
			f.trips.On("IsAttached", mock.Anything, "t-1", "b-1").Return(false, nil).Once()
			f.trips.On("ActiveTripForBooking", mock.Anything, "b-1").Return("t-9", nil).Once()
		}, domain.ErrConflict},
		{"customer no longer eligible", scheduledTrip(2, 0), paidBooking("b-1"), func(f *fixture) {
			f.trips.On("IsAttached", mock.Anything, "t-1", "b-1").Return(false, nil).Once()
			f.trips.On("ActiveTripForBooking", mock.Anything, "b-1").Return("", nil).Once()
			f.customers.On("GetByID", mock.Anything, "c-b-1").Return(&domain.Customer{
				ID: "c-b-1", MedicalStatus: domain.MedicalStatusRejected, CertificationStatus: domain.CertificationStatusCompleted,
			}, nil).Once()
		}, domain.ErrIneligibleCustomer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(tc.trip, nil).Once()
			f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(tc.booking, nil).Once()
			if tc.setup != nil {
				tc.setup(f)
			}

			_, err := f.service.AttachBooking(context.Background(), "t-1", "b-1", "1A")
			assert.ErrorIs(t, err, tc.expected)
			f.trips.AssertNotCalled(t, "Attach", mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_AttachBooking_NotFound(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-x").Return(nil, fmt.Errorf("%w: trip t-x", domain.ErrNotFound)).Once()

	_, err := f.service.AttachBooking(context.Background(), "t-x", "b-1", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.bookings.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestTripService_DetachBooking(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.bookings.On("GetByID", mock.Anything, "b-1").Return(paidBooking("b-1"), nil).Once()
	f.trips.On("Detach", mock.Anything, "t-1", "b-1").Return(true, nil).Once()

	require.NoError(t, f.service.DetachBooking(context.Background(), "t-1", "b-1"))
	assert.Equal(t, []string{kafka.EventBookingDetached}, f.events.Types())
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTripService_DetachBooking_NotAttached(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 0), nil).Once()
	f.bookings.On("GetByID", mock.Anything, "b-1").Return(paidBooking("b-1"), nil).Once()
	f.trips.On("Detach", mock.Anything, "t-1", "b-1").Return(false, nil).Once()

	err := f.service.DetachBooking(context.Background(), "t-1", "b-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTripService_DetachBooking_TripStarted(t *testing.T) {
	f := newFixture()
	trip := scheduledTrip(2, 1)
	trip.Status = domain.TripStatusInProgress
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip, nil).Once()
	f.bookings.On("GetByID", mock.Anything, "b-1").Return(paidBooking("b-1"), nil).Once()

	err := f.service.DetachBooking(context.Background(), "t-1", "b-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	f.trips.AssertNotCalled(t, "Detach", mock.Anything, mock.Anything, mock.Anything)
}

func TestTripService_StartTrip_CascadesBoarded(t *testing.T) {
	f := newFixture()
	boarded := []domain.Booking{
		{ID: "b-1", CustomerID: "c-1", Status: domain.BookingStatusBoarded},
		{ID: "b-2", CustomerID: "c-2", Status: domain.BookingStatusBoarded},
	}
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 2), nil).Once()
	f.trips.On("UpdateStatus", mock.Anything, "t-1", domain.TripStatusInProgress).Return(nil).Once()
	f.trips.On("CascadeBookingStatus", mock.Anything, "t-1", domain.BookingStatusBoarded).Return(boarded, nil).Once()

	trip, err := f.service.StartTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusInProgress, trip.Status)
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, []string{kafka.EventTripStarted, kafka.EventTripStarted}, f.events.Types())
	f.trips.AssertExpectations(t)
}

func TestTripService_StartTrip_NoBookings(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 0), nil).Once()

	_, err := f.service.StartTrip(context.Background(), "t-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	f.trips.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTripService_CompleteTrip(t *testing.T) {
	f := newFixture()
	trip := scheduledTrip(2, 1)
	trip.Status = domain.TripStatusInProgress
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip, nil).Once()
	f.trips.On("UpdateStatus", mock.Anything, "t-1", domain.TripStatusCompleted).Return(nil).Once()
	f.trips.On("CascadeBookingStatus", mock.Anything, "t-1", domain.BookingStatusCompleted).
		Return([]domain.Booking{{ID: "b-1", Status: domain.BookingStatusCompleted}}, nil).Once()

	completed, err := f.service.CompleteTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCompleted, completed.Status)
}

func TestTripService_CompleteTrip_NotStarted(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()

	_, err := f.service.CompleteTrip(context.Background(), "t-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTripService_CancelTrip(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.trips.On("UpdateStatus", mock.Anything, "t-1", domain.TripStatusCancelled).Return(nil).Once()
	f.trips.On("CascadeBookingStatus", mock.Anything, "t-1", domain.BookingStatusCancelled).
		Return([]domain.Booking{{ID: "b-1", Status: domain.BookingStatusCancelled}}, nil).Once()

	trip, err := f.service.CancelTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCancelled, trip.Status)
	assert.Equal(t, []string{kafka.EventTripCancelled}, f.events.Types())
}

func TestTripService_CancelTrip_EmptyTripStillEmits(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 0), nil).Once()
	f.trips.On("UpdateStatus", mock.Anything, "t-1", domain.TripStatusCancelled).Return(nil).Once()
	f.trips.On("CascadeBookingStatus", mock.Anything, "t-1", domain.BookingStatusCancelled).Return([]domain.Booking{}, nil).Once()

	_, err := f.service.CancelTrip(context.Background(), "t-1")
	require.NoError(t, err)
	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "t-1", events[0].TripID)
}

func TestTripService_CancelTrip_Rejected(t *testing.T) {
	for _, status := range []domain.TripStatus{domain.TripStatusInProgress, domain.TripStatusCompleted, domain.TripStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			trip := scheduledTrip(2, 1)
			trip.Status = status
			f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(trip, nil).Once()

			_, err := f.service.CancelTrip(context.Background(), "t-1")
			assert.ErrorIs(t, err, domain.ErrInvalidState)
			f.trips.AssertNotCalled(t, "CascadeBookingStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_UpdateTrip(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.trips.On("Update", mock.Anything, mock.MatchedBy(func(trip *domain.Trip) bool {
		return trip.Capacity == 4 && trip.Description == "sunrise run"
	})).Return(nil).Once()

	capacity, description := 4, "sunrise run"
	trip, err := f.service.UpdateTrip(context.Background(), "t-1", TripPatch{Capacity: &capacity, Description: &description})
	require.NoError(t, err)
	assert.Equal(t, 3, trip.AvailableSeats())
}

func TestTripService_UpdateTrip_Rejections(t *testing.T) {
	completed := scheduledTrip(2, 1)
	completed.Status = domain.TripStatusCompleted
	past := now.Add(-time.Hour)
	zero := 0
	one := 1

	testCases := []struct {
		name     string
		trip     *domain.Trip
		patch    TripPatch
		expected error
	}{
		{"completed trip", completed, TripPatch{Capacity: &one}, domain.ErrInvalidState},
		{"capacity below passengers", scheduledTrip(3, 2), TripPatch{Capacity: &one}, domain.ErrValidation},
		{"departure in the past", scheduledTrip(3, 0), TripPatch{DepartureAt: &past}, domain.ErrValidation},
		{"zero duration", scheduledTrip(3, 0), TripPatch{DurationHours: &zero}, domain.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.trips.On("GetByIDForUpdate", mock.Anything, "t-1").Return(tc.trip, nil).Once()

			_, err := f.service.UpdateTrip(context.Background(), "t-1", tc.patch)
			assert.ErrorIs(t, err, tc.expected)
			f.trips.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_ExportManifest(t *testing.T) {
	f := newFixture()
	attachedAt := time.Date(2030, 2, 1, 9, 30, 0, 0, time.UTC)
	f.trips.On("GetByID", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.trips.On("Manifest", mock.Anything, "t-1").Return([]domain.ManifestEntry{
		{BookingID: "b-1", CustomerID: "c-1", Seat: "1A", BookingStatus: domain.BookingStatusPaid, AttachedAt: attachedAt},
	}, nil).Once()

	data, err := f.service.ExportManifest(context.Background(), "t-1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "booking_id,customer_id,seat,status,attached_at", lines[0])
	assert.Equal(t, "b-1,c-1,1A,PAID,2030-02-01T09:30:00Z", lines[1])
}

func TestTripService_GetTrip(t *testing.T) {
	f := newFixture()
	f.trips.On("GetByID", mock.Anything, "t-1").Return(scheduledTrip(2, 1), nil).Once()
	f.trips.On("ListAttachments", mock.Anything, "t-1").Return([]domain.TripAttachment{{BookingID: "b-1", Seat: "1A"}}, nil).Once()

	details, err := f.service.GetTrip(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, details.Trip.AvailableSeats())
	assert.Len(t, details.Attachments, 1)
}
