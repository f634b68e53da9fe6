package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, bookingID string, page Page) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error)
	FindByExternalReference(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Payment, error)
}

type PGPaymentRepository struct {
	base
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{base{db: db}}
}

const paymentColumns = `id, booking_id, amount::text, currency_code, status, external_reference, method, paid_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
		err    error
	)
	if err = row.Scan(&p.ID, &p.BookingID, &amount, &p.CurrencyCode, &p.Status, &p.ExternalReference, &p.Method, &p.PaidAt); err != nil {
		return nil, err
	}
	if p.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO payments (id, booking_id, amount, currency_code, status, external_reference, method)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING paid_at`,
		p.ID, p.BookingID, p.Amount.String(), p.CurrencyCode, p.Status, p.ExternalReference, p.Method).Scan(&p.PaidAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s is already recorded as %s", domain.ErrConflict, p.ExternalReference, p.Status)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.conn(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "payment "+id)
	}
	return p, nil
}

// List returns payments in creation order. An empty bookingID lists every payment.
func (r *PGPaymentRepository) List(ctx context.Context, bookingID string, page Page) ([]domain.Payment, error) {
	page = page.normalized()
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE ($1 = '' OR booking_id = $1)
		ORDER BY paid_at, id OFFSET $2 LIMIT $3`, bookingID, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	p, err := scanPayment(r.conn(ctx).QueryRow(ctx, `UPDATE payments SET status=$2 WHERE id=$1 RETURNING `+paymentColumns, id, status))
	if err != nil {
		return nil, notFound(err, "payment "+id)
	}
	return p, nil
}

// FindByExternalReference returns nil when no payment with that gateway reference and status exists.
func (r *PGPaymentRepository) FindByExternalReference(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Payment, error) {
	p, err := scanPayment(r.conn(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE external_reference=$1 AND status=$2
		ORDER BY paid_at DESC LIMIT 1`, reference, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by reference: %w", err)
	}
	return p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
