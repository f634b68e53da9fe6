package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EligibilityRepository interface {
	CreateClearance(ctx context.Context, clearance *domain.MedicalClearance) error
	GetClearance(ctx context.Context, id string) (*domain.MedicalClearance, error)
	UpdateClearance(ctx context.Context, clearance *domain.MedicalClearance) error
	ListClearances(ctx context.Context, customerID string) ([]domain.MedicalClearance, error)
	CreateCertification(ctx context.Context, cert *domain.Certification) error
	GetCertification(ctx context.Context, id string) (*domain.Certification, error)
	UpdateCertification(ctx context.Context, cert *domain.Certification) error
	ListCertifications(ctx context.Context, customerID string) ([]domain.Certification, error)
}

type PGEligibilityRepository struct {
	base
}

func NewEligibilityRepository(db *pgxpool.Pool) EligibilityRepository {
	return &PGEligibilityRepository{base{db: db}}
}

func scanClearance(row pgx.Row) (*domain.MedicalClearance, error) {
	var m domain.MedicalClearance
	if err := row.Scan(&m.ID, &m.CustomerID, &m.Approved, &m.Details, &m.VerifiedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanCertification(row pgx.Row) (*domain.Certification, error) {
	var c domain.Certification
	if err := row.Scan(&c.ID, &c.CustomerID, &c.Description, &c.Completed, &c.CertifiedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGEligibilityRepository) CreateClearance(ctx context.Context, m *domain.MedicalClearance) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO medical_clearances (id, customer_id, approved, details)
		VALUES ($1, $2, $3, $4)
		RETURNING verified_at`, m.ID, m.CustomerID, m.Approved, m.Details).Scan(&m.VerifiedAt); err != nil {
		return fmt.Errorf("create medical clearance: %w", err)
	}
	return nil
}

func (r *PGEligibilityRepository) GetClearance(ctx context.Context, id string) (*domain.MedicalClearance, error) {
	m, err := scanClearance(r.conn(ctx).QueryRow(ctx, `SELECT id, customer_id, approved, details, verified_at FROM medical_clearances WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "medical clearance "+id)
	}
	return m, nil
}

func (r *PGEligibilityRepository) UpdateClearance(ctx context.Context, m *domain.MedicalClearance) error {
	cmd, err := r.conn(ctx).Exec(ctx, `UPDATE medical_clearances SET approved=$2, details=$3 WHERE id=$1`, m.ID, m.Approved, m.Details)
	if err != nil {
		return fmt.Errorf("update medical clearance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: medical clearance %s", domain.ErrNotFound, m.ID)
	}
	return nil
}

// ListClearances returns the newest verification first.
func (r *PGEligibilityRepository) ListClearances(ctx context.Context, customerID string) ([]domain.MedicalClearance, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, customer_id, approved, details, verified_at
		FROM medical_clearances WHERE customer_id=$1 ORDER BY verified_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list medical clearances: %w", err)
	}
	defer rows.Close()

	clearances := make([]domain.MedicalClearance, 0)
	for rows.Next() {
		m, err := scanClearance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical clearance: %w", err)
		}
		clearances = append(clearances, *m)
	}
	return clearances, rows.Err()
}

func (r *PGEligibilityRepository) CreateCertification(ctx context.Context, c *domain.Certification) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO certifications (id, customer_id, description, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING certified_at`, c.ID, c.CustomerID, c.Description, c.Completed).Scan(&c.CertifiedAt); err != nil {
		return fmt.Errorf("create certification: %w", err)
	}
	return nil
}

func (r *PGEligibilityRepository) GetCertification(ctx context.Context, id string) (*domain.Certification, error) {
	c, err := scanCertification(r.conn(ctx).QueryRow(ctx, `SELECT id, customer_id, description, completed, certified_at FROM certifications WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "certification "+id)
	}
	return c, nil
}

func (r *PGEligibilityRepository) UpdateCertification(ctx context.Context, c *domain.Certification) error {
	cmd, err := r.conn(ctx).Exec(ctx, `UPDATE certifications SET description=$2, completed=$3 WHERE id=$1`, c.ID, c.Description, c.Completed)
	if err != nil {
		return fmt.Errorf("update certification: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: certification %s", domain.ErrNotFound, c.ID)
	}
	return nil
}

func (r *PGEligibilityRepository) ListCertifications(ctx context.Context, customerID string) ([]domain.Certification, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, customer_id, description, completed, certified_at
		FROM certifications WHERE customer_id=$1 ORDER BY certified_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()

	certs := make([]domain.Certification, 0)
	for rows.Next() {
		c, err := scanCertification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certification: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

var _ EligibilityRepository = (*PGEligibilityRepository)(nil)
