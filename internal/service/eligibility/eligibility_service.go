package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EligibilityUseCase interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, page repository.Page) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*domain.Customer, error)
	IsEligible(ctx context.Context, customerID string) (bool, error)

	RecordMedicalVerification(ctx context.Context, customerID string, approved bool, details string) (*domain.MedicalClearance, error)
	ListMedicalClearances(ctx context.Context, customerID string) ([]domain.MedicalClearance, error)
	UpdateMedicalClearance(ctx context.Context, id string, patch ClearancePatch) (*domain.MedicalClearance, error)
	RecordCertification(ctx context.Context, customerID, description string, completed bool) (*domain.Certification, error)
	ListCertifications(ctx context.Context, customerID string) ([]domain.Certification, error)
	UpdateCertification(ctx context.Context, id string, patch CertificationPatch) (*domain.Certification, error)
}

type CustomerInput struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	BirthDate time.Time `json:"birth_date"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	Address   string    `json:"address"`
}

// CustomerPatch carries profile fields only. Medical and certification status are
// derived from verification records and cannot be written here.
type CustomerPatch struct {
	Name      *string    `json:"name"`
	Email     *string    `json:"email"`
	BirthDate *time.Time `json:"birth_date"`
	Document  *string    `json:"document"`
	Phone     *string    `json:"phone"`
	Country   *string    `json:"country"`
	Address   *string    `json:"address"`
}

type ClearancePatch struct {
	Approved *bool   `json:"approved"`
	Details  *string `json:"details"`
}

type CertificationPatch struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type EligibilityService struct {
	customers repository.CustomerRepository
	records   repository.EligibilityRepository
	tx        repository.TxManager
	log       *zap.Logger
}

func NewEligibilityService(
	customers repository.CustomerRepository,
	records repository.EligibilityRepository,
	tx repository.TxManager,
	log *zap.Logger,
) *EligibilityService {
	return &EligibilityService{customers: customers, records: records, tx: tx, log: log}
}

func (in CustomerInput) validate() error {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"email", in.Email},
		{"document", in.Document},
		{"phone", in.Phone},
		{"country", in.Country},
		{"address", in.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, r.field)
		}
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email %q is malformed", domain.ErrValidation, in.Email)
	}
	if in.BirthDate.IsZero() {
		return fmt.Errorf("%w: birth_date is required", domain.ErrValidation)
	}
	if in.BirthDate.After(time.Now()) {
		return fmt.Errorf("%w: birth_date is in the future", domain.ErrValidation)
	}
	return nil
}

func (s *EligibilityService) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:                  uuid.NewString(),
		Name:                input.Name,
		Email:               strings.ToLower(strings.TrimSpace(input.Email)),
		BirthDate:           input.BirthDate,
		Document:            input.Document,
		Phone:               input.Phone,
		Country:             input.Country,
		Address:             input.Address,
		MedicalStatus:       domain.MedicalStatusPending,
		CertificationStatus: domain.CertificationStatusPending,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.log.Info("customer created", zap.String("customer_id", customer.ID))
	return customer, nil
}

func (s *EligibilityService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *EligibilityService) ListCustomers(ctx context.Context, page repository.Page) ([]domain.Customer, error) {
	return s.customers.List(ctx, page)
}

func (s *EligibilityService) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*domain.Customer, error) {
	var updated *domain.Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		input := CustomerInput{
			Name: customer.Name, Email: customer.Email, BirthDate: customer.BirthDate, Document: customer.Document,
			Phone: customer.Phone, Country: customer.Country, Address: customer.Address,
		}
		patch.apply(&input)
		if err := input.validate(); err != nil {
			return err
		}

		customer.Name = input.Name
		customer.Email = strings.ToLower(strings.TrimSpace(input.Email))
		customer.BirthDate = input.BirthDate
		customer.Document = input.Document
		customer.Phone = input.Phone
		customer.Country = input.Country
		customer.Address = input.Address
		if err := s.customers.UpdateProfile(ctx, customer); err != nil {
			return err
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p CustomerPatch) apply(in *CustomerInput) {
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.BirthDate != nil {
		in.BirthDate = *p.BirthDate
	}
	if p.Document != nil {
		in.Document = *p.Document
	}
	if p.Phone != nil {
		in.Phone = *p.Phone
	}
	if p.Country != nil {
		in.Country = *p.Country
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
}

func (s *EligibilityService) IsEligible(ctx context.Context, customerID string) (bool, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	return customer.IsEligible(), nil
}

// RecordMedicalVerification stores the verification and makes it authoritative for the
// customer's medical status.
func (s *EligibilityService) RecordMedicalVerification(ctx context.Context, customerID string, approved bool, details string) (*domain.MedicalClearance, error) {
	clearance := &domain.MedicalClearance{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Approved:   approved,
		Details:    details,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetByIDForUpdate(ctx, customerID); err != nil {
			return err
		}
		if err := s.records.CreateClearance(ctx, clearance); err != nil {
			return err
		}
		return s.customers.SetMedicalStatus(ctx, customerID, domain.MedicalStatusFor(approved))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("medical verification recorded",
		zap.String("customer_id", customerID),
		zap.String("medical_status", string(domain.MedicalStatusFor(approved))))
	return clearance, nil
}

func (s *EligibilityService) ListMedicalClearances(ctx context.Context, customerID string) ([]domain.MedicalClearance, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.records.ListClearances(ctx, customerID)
}

// UpdateMedicalClearance edits a verification. When the approval flag changes, the
// customer's status is recomputed from the most recent verification on file.
func (s *EligibilityService) UpdateMedicalClearance(ctx context.Context, id string, patch ClearancePatch) (*domain.MedicalClearance, error) {
	var clearance *domain.MedicalClearance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.records.GetClearance(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.customers.GetByIDForUpdate(ctx, current.CustomerID); err != nil {
			return err
		}

		if patch.Approved != nil {
			current.Approved = *patch.Approved
		}
		if patch.Details != nil {
			current.Details = *patch.Details
		}
		if err := s.records.UpdateClearance(ctx, current); err != nil {
			return err
		}
		clearance = current

		if patch.Approved == nil {
			return nil
		}
		history, err := s.records.ListClearances(ctx, current.CustomerID)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nil
		}
		return s.customers.SetMedicalStatus(ctx, current.CustomerID, domain.MedicalStatusFor(history[0].Approved))
	})
	if err != nil {
		return nil, err
	}
	return clearance, nil
}

func (s *EligibilityService) RecordCertification(ctx context.Context, customerID, description string, completed bool) (*domain.Certification, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	cert := &domain.Certification{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Description: description,
		Completed:   completed,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByIDForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.records.CreateCertification(ctx, cert); err != nil {
			return err
		}
		if !completed {
			return nil
		}
		return s.recomputeCertification(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func (s *EligibilityService) ListCertifications(ctx context.Context, customerID string) ([]domain.Certification, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.records.ListCertifications(ctx, customerID)
}

func (s *EligibilityService) UpdateCertification(ctx context.Context, id string, patch CertificationPatch) (*domain.Certification, error) {
	var cert *domain.Certification
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.records.GetCertification(ctx, id)
		if err != nil {
			return err
		}
		customer, err := s.customers.GetByIDForUpdate(ctx, current.CustomerID)
		if err != nil {
			return err
		}

		if patch.Description != nil {
			if strings.TrimSpace(*patch.Description) == "" {
				return fmt.Errorf("%w: description is required", domain.ErrValidation)
			}
			current.Description = *patch.Description
		}
		if patch.Completed != nil {
			current.Completed = *patch.Completed
		}
		if err := s.records.UpdateCertification(ctx, current); err != nil {
			return err
		}
		cert = current

		if !current.Completed {
			return nil
		}
		return s.recomputeCertification(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// recomputeCertification is the only writer of certification status.
func (s *EligibilityService) recomputeCertification(ctx context.Context, customer *domain.Customer) error {
	certs, err := s.records.ListCertifications(ctx, customer.ID)
	if err != nil {
		return err
	}
	next := domain.NextCertificationStatus(customer.CertificationStatus, certs)
	if next == customer.CertificationStatus {
		return nil
	}
	if err := s.customers.SetCertificationStatus(ctx, customer.ID, next); err != nil {
		return err
	}
	s.log.Info("certification status changed", zap.String("customer_id", customer.ID), zap.String("status", string(next)))
	return nil
}

var _ EligibilityUseCase = (*EligibilityService)(nil)
