//go:build integration

package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/migrator"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/trips"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Run with: SPACEBOOKING_TEST_DSN=postgres://... go test -tags integration ./internal/repository/...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("SPACEBOOKING_TEST_DSN")
	if dsn == "" {
		t.Skip("SPACEBOOKING_TEST_DSN is not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	m, err := migrator.New(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Run(ctx))
	return pool
}

type seed struct {
	customers repository.CustomerRepository
	catalog   repository.CatalogRepository
	bookings  repository.BookingRepository
	trips     repository.TripRepository
	payments  repository.PaymentRepository
	pkg       *domain.Package
}

func newSeed(t *testing.T, pool *pgxpool.Pool) *seed {
	t.Helper()
	s := &seed{
		customers: repository.NewCustomerRepository(pool),
		catalog:   repository.NewCatalogRepository(pool),
		bookings:  repository.NewBookingRepository(pool),
		trips:     repository.NewTripRepository(pool),
		payments:  repository.NewPaymentRepository(pool),
	}
	s.pkg = &domain.Package{ID: uuid.NewString(), Name: "Orbital hop", Type: domain.PackageTypeSuborbital, Price: decimal.NewFromInt(250000), Available: true}
	require.NoError(t, s.catalog.CreatePackage(context.Background(), s.pkg))
	return s
}

func (s *seed) paidBooking(t *testing.T) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	customer := &domain.Customer{
		ID:                  id,
		Name:                "Ana",
		Email:               id + "@example.com",
		BirthDate:           time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Document:            id,
		Phone:               "+55 11 99999-0000",
		Country:             "BR",
		Address:             "Rua A, 1",
		MedicalStatus:       domain.MedicalStatusApproved,
		CertificationStatus: domain.CertificationStatusCompleted,
	}
	require.NoError(t, s.customers.Create(ctx, customer))
	booking := &domain.Booking{
		ID:             uuid.NewString(),
		CustomerID:     customer.ID,
		PackageID:      s.pkg.ID,
		Status:         domain.BookingStatusPaid,
		OriginalAmount: s.pkg.Price,
		TaxAmount:      decimal.NewFromInt(12500),
		TotalAmount:    decimal.NewFromInt(262500),
	}
	require.NoError(t, s.bookings.Create(ctx, booking))
	return booking
}

func (s *seed) trip(t *testing.T, capacity int) *domain.Trip {
	t.Helper()
	trip := &domain.Trip{
		ID:            uuid.NewString(),
		PackageID:     s.pkg.ID,
		DepartureAt:   time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second),
		DurationHours: 4,
		Status:        domain.TripStatusScheduled,
		Capacity:      capacity,
	}
	require.NoError(t, s.trips.Create(context.Background(), trip))
	return trip
}

func TestIntegration_ConcurrentAttachForLastSeat(t *testing.T) {
	pool := testPool(t)
	s := newSeed(t, pool)
	service := trips.NewTripService(s.trips, s.bookings, s.customers, s.catalog, repository.NewTxManager(pool), zap.NewNop())
	trip := s.trip(t, 1)
	first, second := s.paidBooking(t), s.paidBooking(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, booking := range []*domain.Booking{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = service.AttachBooking(context.Background(), trip.ID, booking.ID, "")
		}()
	}
	wg.Wait()

	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], domain.ErrCapacityExceeded)
	} else {
		assert.ErrorIs(t, errs[0], domain.ErrCapacityExceeded)
		assert.NoError(t, errs[1])
	}

	attachments, err := s.trips.ListAttachments(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Len(t, attachments, 1)
}

func TestIntegration_StartTripCascadesEveryBooking(t *testing.T) {
	pool := testPool(t)
	s := newSeed(t, pool)
	service := trips.NewTripService(s.trips, s.bookings, s.customers, s.catalog, repository.NewTxManager(pool), zap.NewNop())
	trip := s.trip(t, 3)
	ctx := context.Background()

	booked := []*domain.Booking{s.paidBooking(t), s.paidBooking(t)}
	for _, b := range booked {
		_, err := service.AttachBooking(ctx, trip.ID, b.ID, "")
		require.NoError(t, err)
	}

	started, err := service.StartTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusInProgress, started.Status)
	for _, b := range booked {
		current, err := s.bookings.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusBoarded, current.Status)
	}
}

func TestIntegration_PaymentExternalReferenceIsUnique(t *testing.T) {
	pool := testPool(t)
	s := newSeed(t, pool)
	ctx := context.Background()
	booking := s.paidBooking(t)
	code := "T" + uuid.NewString()[:8]
	require.NoError(t, s.catalog.CreateCurrency(ctx, &domain.Currency{ID: uuid.NewString(), Name: "Test", Code: code, ExchangeRate: decimal.NewFromInt(1)}))

	ref := "pay_" + uuid.NewString()
	payment := func() *domain.Payment {
		return &domain.Payment{ID: uuid.NewString(), BookingID: booking.ID, Amount: decimal.NewFromInt(10), CurrencyCode: code,
			Status: domain.PaymentStatusConfirmed, ExternalReference: ref}
	}
	require.NoError(t, s.payments.Create(ctx, payment()))
	assert.ErrorIs(t, s.payments.Create(ctx, payment()), domain.ErrConflict)
}
