package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, page Page) ([]domain.Customer, error)
	UpdateProfile(ctx context.Context, customer *domain.Customer) error
	SetMedicalStatus(ctx context.Context, id string, status domain.MedicalStatus) error
	SetCertificationStatus(ctx context.Context, id string, status domain.CertificationStatus) error
}

type PGCustomerRepository struct {
	base
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PGCustomerRepository{base{db: db}}
}

const customerColumns = `id, name, email, birth_date, document, phone, country, address, medical_status, certification_status, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.BirthDate, &c.Document, &c.Phone, &c.Country, &c.Address,
		&c.MedicalStatus, &c.CertificationStatus, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGCustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	err := r.conn(ctx).QueryRow(ctx, `INSERT INTO customers (id, name, email, birth_date, document, phone, country, address, medical_status, certification_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.BirthDate, c.Document, c.Phone, c.Country, c.Address, c.MedicalStatus, c.CertificationStatus).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, c.Email)
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *PGCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.conn(ctx).QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "customer "+id)
	}
	return c, nil
}

func (r *PGCustomerRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.conn(ctx).QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "customer "+id)
	}
	return c, nil
}

func (r *PGCustomerRepository) List(ctx context.Context, page Page) ([]domain.Customer, error) {
	page = page.normalized()
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at OFFSET $1 LIMIT $2`, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *PGCustomerRepository) UpdateProfile(ctx context.Context, c *domain.Customer) error {
	err := r.conn(ctx).QueryRow(ctx, `UPDATE customers
		SET name=$2, email=$3, birth_date=$4, document=$5, phone=$6, country=$7, address=$8, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		c.ID, c.Name, c.Email, c.BirthDate, c.Document, c.Phone, c.Country, c.Address).Scan(&c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, c.Email)
		}
		return notFound(err, "customer "+c.ID)
	}
	return nil
}

func (r *PGCustomerRepository) SetMedicalStatus(ctx context.Context, id string, status domain.MedicalStatus) error {
	cmd, err := r.conn(ctx).Exec(ctx, `UPDATE customers SET medical_status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("set medical status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PGCustomerRepository) SetCertificationStatus(ctx context.Context, id string, status domain.CertificationStatus) error {
	cmd, err := r.conn(ctx).Exec(ctx, `UPDATE customers SET certification_status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("set certification status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %s", domain.ErrNotFound, id)
	}
	return nil
}

var _ CustomerRepository = (*PGCustomerRepository)(nil)
