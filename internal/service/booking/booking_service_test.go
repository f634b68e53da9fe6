package booking

import (
	"context"
	"fmt"
	"testing"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/kafka/kafkatest"
	"github.com/Domenick1991/spacebooking/internal/pricing"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	service   *BookingService
	bookings  *mocks.BookingRepository
	customers *mocks.CustomerRepository
	catalog   *mocks.CatalogRepository
	payments  *mocks.PaymentRepository
	trips     *mocks.TripRepository
	events    *kafkatest.Recorder
}

func newFixture() *fixture {
	f := &fixture{
		bookings:  &mocks.BookingRepository{},
		customers: &mocks.CustomerRepository{},
		catalog:   &mocks.CatalogRepository{},
		payments:  &mocks.PaymentRepository{},
		trips:     &mocks.TripRepository{},
		events:    &kafkatest.Recorder{},
	}
	f.service = NewBookingService(f.bookings, f.customers, f.catalog, f.payments, f.trips,
		pricing.NewEngine(f.catalog), &mocks.TxManager{}, zap.NewNop(), WithEvents(f.events))
	return f
}

func eligibleCustomer() *domain.Customer {
	return &domain.Customer{
		ID:                  "c-1",
		Country:             "BR",
		MedicalStatus:       domain.MedicalStatusApproved,
		CertificationStatus: domain.CertificationStatusCompleted,
	}
}

func availablePackage() *domain.Package {
	return &domain.Package{ID: "pkg-1", Price: decimal.RequireFromString("250000.00"), Available: true}
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
}

func TestBookingService_CreateBooking_DefaultTax(t *testing.T) {
	f := newFixture()

	f.customers.On("GetByID", mock.Anything, "c-1").Return(eligibleCustomer(), nil).Once()
	f.catalog.On("GetPackage", mock.Anything, "pkg-1").Return(availablePackage(), nil).Once()
	f.catalog.On("FindTaxRule", mock.Anything, "BR", pricing.DefaultDestination).Return(nil, notFound("tax rule")).Once()
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := f.service.CreateBooking(context.Background(), CreateBookingInput{CustomerID: "c-1", PackageID: "pkg-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusReserved, booking.Status)
	assert.Equal(t, "250000.00", booking.OriginalAmount.StringFixed(2))
	assert.Equal(t, "12500.00", booking.TaxAmount.StringFixed(2))
	assert.Equal(t, "262500.00", booking.TotalAmount.StringFixed(2))
	assert.True(t, booking.TotalAmount.Equal(booking.OriginalAmount.Add(booking.TaxAmount)))
	assert.Equal(t, []string{kafka.EventBookingCreated}, f.events.Types())
	f.bookings.AssertExpectations(t)
}

func TestBookingService_CreateBooking_CountryRule(t *testing.T) {
	f := newFixture()

	f.customers.On("GetByID", mock.Anything, "c-1").Return(eligibleCustomer(), nil).Once()
	f.catalog.On("GetPackage", mock.Anything, "pkg-1").Return(availablePackage(), nil).Once()
	f.catalog.On("FindTaxRule", mock.Anything, "BR", pricing.DefaultDestination).
		Return(&domain.TaxRule{Percentage: decimal.RequireFromString("12.5")}, nil).Once()
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := f.service.CreateBooking(context.Background(), CreateBookingInput{CustomerID: "c-1", PackageID: "pkg-1"})
	require.NoError(t, err)
	assert.Equal(t, "31250.00", booking.TaxAmount.StringFixed(2))
	assert.Equal(t, "281250.00", booking.TotalAmount.StringFixed(2))
}

func TestBookingService_CreateBooking_Failures(t *testing.T) {
	rejected := eligibleCustomer()
	rejected.MedicalStatus = domain.MedicalStatusRejected
	unavailable := availablePackage()
	unavailable.Available = false

	testCases := []struct {
		name      string
		customer  *domain.Customer
		customErr error
		pkg       *domain.Package
		pkgErr    error
		expected  error
	}{
		{"unknown customer", nil, notFound("customer"), nil, nil, domain.ErrNotFound},
		{"unknown package", eligibleCustomer(), nil, nil, notFound("package"), domain.ErrNotFound},
		{"package unavailable", eligibleCustomer(), nil, unavailable, nil, domain.ErrConflict},
		{"ineligible customer", rejected, nil, availablePackage(), nil, domain.ErrIneligibleCustomer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.customers.On("GetByID", mock.Anything, "c-1").Return(tc.customer, tc.customErr).Once()
			if tc.customErr == nil {
				f.catalog.On("GetPackage", mock.Anything, "pkg-1").Return(tc.pkg, tc.pkgErr).Once()
			}

			_, err := f.service.CreateBooking(context.Background(), CreateBookingInput{CustomerID: "c-1", PackageID: "pkg-1"})
			assert.ErrorIs(t, err, tc.expected)
			f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.events.Types())
		})
	}
}

func TestBookingService_CreateBooking_MissingIDs(t *testing.T) {
	f := newFixture()
	_, err := f.service.CreateBooking(context.Background(), CreateBookingInput{CustomerID: "c-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newFixture()
	reserved := &domain.Booking{ID: "b-1", Status: domain.BookingStatusReserved, TotalAmount: decimal.NewFromInt(10)}
	cancelled := &domain.Booking{ID: "b-1", Status: domain.BookingStatusCancelled, TotalAmount: decimal.NewFromInt(10)}

	f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(reserved, nil).Once()
	f.bookings.On("UpdateStatus", mock.Anything, "b-1", domain.BookingStatusCancelled).Return(cancelled, nil).Once()

	booking, err := f.service.CancelBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
	assert.Equal(t, []string{kafka.EventBookingCancelled}, f.events.Types())
}

func TestBookingService_CancelBooking_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	cancelled := &domain.Booking{ID: "b-1", Status: domain.BookingStatusCancelled}
	f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(cancelled, nil).Once()

	booking, err := f.service.CancelBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, cancelled, booking)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.events.Types())
}

func TestBookingService_CancelBooking_AfterPayment(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.BookingStatusPaid, domain.BookingStatusBoarded, domain.BookingStatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			f.bookings.On("GetByIDForUpdate", mock.Anything, "b-1").Return(&domain.Booking{ID: "b-1", Status: status}, nil).Once()

			_, err := f.service.CancelBooking(context.Background(), "b-1")
			assert.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestBookingService_UpdateBooking(t *testing.T) {
	f := newFixture()
	seat := "2A"
	f.bookings.On("UpdateSeat", mock.Anything, "b-1", "2A").Return(&domain.Booking{ID: "b-1", Seat: "2A"}, nil).Once()

	booking, err := f.service.UpdateBooking(context.Background(), "b-1", Patch{Seat: &seat})
	require.NoError(t, err)
	assert.Equal(t, "2A", booking.Seat)
}

func TestBookingService_UpdateBooking_RejectsStatus(t *testing.T) {
	f := newFixture()
	status := domain.BookingStatusPaid

	_, err := f.service.UpdateBooking(context.Background(), "b-1", Patch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrValidation)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_GetBooking(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, "b-1").Return(&domain.Booking{ID: "b-1"}, nil).Once()
	f.payments.On("List", mock.Anything, "b-1", repository.Page{}).Return([]domain.Payment{{ID: "p-1"}}, nil).Once()
	f.trips.On("ListBookingAttachments", mock.Anything, "b-1").Return([]domain.TripAttachment{{TripID: "t-1"}}, nil).Once()

	details, err := f.service.GetBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Len(t, details.Payments, 1)
	assert.Equal(t, "t-1", details.Trips[0].TripID)
}

func TestBookingService_ListBookings_InvalidStatus(t *testing.T) {
	f := newFixture()
	_, err := f.service.ListBookings(context.Background(), repository.BookingFilter{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
