// Package mocks holds testify mocks of the repository ports for service tests.
package mocks

import (
	"context"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/stretchr/testify/mock"
)

// TxManager runs fn inline and records how many transactions were opened.
type TxManager struct {
	Calls int
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

type CustomerRepository struct {
	mock.Mock
}

func (m *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *CustomerRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *CustomerRepository) List(ctx context.Context, page repository.Page) ([]domain.Customer, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *CustomerRepository) UpdateProfile(ctx context.Context, customer *domain.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *CustomerRepository) SetMedicalStatus(ctx context.Context, id string, status domain.MedicalStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *CustomerRepository) SetCertificationStatus(ctx context.Context, id string, status domain.CertificationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type EligibilityRepository struct {
	mock.Mock
}

func (m *EligibilityRepository) CreateClearance(ctx context.Context, clearance *domain.MedicalClearance) error {
	return m.Called(ctx, clearance).Error(0)
}

func (m *EligibilityRepository) GetClearance(ctx context.Context, id string) (*domain.MedicalClearance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MedicalClearance), args.Error(1)
}

func (m *EligibilityRepository) UpdateClearance(ctx context.Context, clearance *domain.MedicalClearance) error {
	return m.Called(ctx, clearance).Error(0)
}

func (m *EligibilityRepository) ListClearances(ctx context.Context, customerID string) ([]domain.MedicalClearance, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]domain.MedicalClearance), args.Error(1)
}

func (m *EligibilityRepository) CreateCertification(ctx context.Context, cert *domain.Certification) error {
	return m.Called(ctx, cert).Error(0)
}

func (m *EligibilityRepository) GetCertification(ctx context.Context, id string) (*domain.Certification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certification), args.Error(1)
}

func (m *EligibilityRepository) UpdateCertification(ctx context.Context, cert *domain.Certification) error {
	return m.Called(ctx, cert).Error(0)
}

func (m *EligibilityRepository) ListCertifications(ctx context.Context, customerID string) ([]domain.Certification, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]domain.Certification), args.Error(1)
}

type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) CreatePackage(ctx context.Context, pkg *domain.Package) error {
	return m.Called(ctx, pkg).Error(0)
}

func (m *CatalogRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *CatalogRepository) ListPackages(ctx context.Context, page repository.Page) ([]domain.Package, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Package), args.Error(1)
}

func (m *CatalogRepository) SetPackageAvailability(ctx context.Context, id string, available bool) (*domain.Package, error) {
	args := m.Called(ctx, id, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *CatalogRepository) CreateTaxRule(ctx context.Context, rule *domain.TaxRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *CatalogRepository) ListTaxRules(ctx context.Context) ([]domain.TaxRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TaxRule), args.Error(1)
}

func (m *CatalogRepository) FindTaxRule(ctx context.Context, origin, destination string) (*domain.TaxRule, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxRule), args.Error(1)
}

func (m *CatalogRepository) CreateCurrency(ctx context.Context, currency *domain.Currency) error {
	return m.Called(ctx, currency).Error(0)
}

func (m *CatalogRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *CatalogRepository) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

type BookingRepository struct {
	mock.Mock
}

func (m *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *BookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *BookingRepository) UpdateSeat(ctx context.Context, id, seat string) (*domain.Booking, error) {
	args := m.Called(ctx, id, seat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type TripRepository struct {
	mock.Mock
}

func (m *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	return m.Called(ctx, trip).Error(0)
}

func (m *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *TripRepository) List(ctx context.Context, filter repository.TripFilter) ([]domain.Trip, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	return m.Called(ctx, trip).Error(0)
}

func (m *TripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *TripRepository) ListAttachments(ctx context.Context, tripID string) ([]domain.TripAttachment, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]domain.TripAttachment), args.Error(1)
}

func (m *TripRepository) ListBookingAttachments(ctx context.Context, bookingID string) ([]domain.TripAttachment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.TripAttachment), args.Error(1)
}

func (m *TripRepository) IsAttached(ctx context.Context, tripID, bookingID string) (bool, error) {
	args := m.Called(ctx, tripID, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *TripRepository) ActiveTripForBooking(ctx context.Context, bookingID string) (string, error) {
	args := m.Called(ctx, bookingID)
	return args.String(0), args.Error(1)
}

func (m *TripRepository) Attach(ctx context.Context, attachment *domain.TripAttachment) error {
	return m.Called(ctx, attachment).Error(0)
}

func (m *TripRepository) Detach(ctx context.Context, tripID, bookingID string) (bool, error) {
	args := m.Called(ctx, tripID, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *TripRepository) CascadeBookingStatus(ctx context.Context, tripID string, status domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, tripID, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *TripRepository) Manifest(ctx context.Context, tripID string) ([]domain.ManifestEntry, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]domain.ManifestEntry), args.Error(1)
}

type PaymentRepository struct {
	mock.Mock
}

func (m *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *PaymentRepository) List(ctx context.Context, bookingID string, page repository.Page) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID, page)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *PaymentRepository) FindByExternalReference(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Payment, error) {
	args := m.Called(ctx, reference, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type PassengerRepository struct {
	mock.Mock
}

func (m *PassengerRepository) Create(ctx context.Context, passenger *domain.Passenger) error {
	return m.Called(ctx, passenger).Error(0)
}

func (m *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *PassengerRepository) List(ctx context.Context, tripID string, page repository.Page) ([]domain.Passenger, error) {
	args := m.Called(ctx, tripID, page)
	return args.Get(0).([]domain.Passenger), args.Error(1)
}

func (m *PassengerRepository) CountByTrip(ctx context.Context, tripID string) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *PassengerRepository) Update(ctx context.Context, passenger *domain.Passenger) error {
	return m.Called(ctx, passenger).Error(0)
}

func (m *PassengerRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var (
	_ repository.TxManager             = (*TxManager)(nil)
	_ repository.CustomerRepository    = (*CustomerRepository)(nil)
	_ repository.EligibilityRepository = (*EligibilityRepository)(nil)
	_ repository.CatalogRepository     = (*CatalogRepository)(nil)
	_ repository.BookingRepository     = (*BookingRepository)(nil)
	_ repository.TripRepository        = (*TripRepository)(nil)
	_ repository.PaymentRepository     = (*PaymentRepository)(nil)
	_ repository.PassengerRepository   = (*PassengerRepository)(nil)
)
