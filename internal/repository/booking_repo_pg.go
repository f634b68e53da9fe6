package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingFilter struct {
	CustomerID string
	Status     domain.BookingStatus
	Page
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	UpdateSeat(ctx context.Context, id, seat string) (*domain.Booking, error)
}

type PGBookingRepository struct {
	base
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{base{db: db}}
}

const bookingColumns = `id, customer_id, package_id, status, original_amount::text, tax_amount::text, total_amount::text, seat, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                    domain.Booking
		original, tax, total string
		err                  error
	)
	if err = row.Scan(&b.ID, &b.CustomerID, &b.PackageID, &b.Status, &original, &tax, &total, &b.Seat, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if b.OriginalAmount, err = parseDecimal(original); err != nil {
		return nil, err
	}
	if b.TaxAmount, err = parseDecimal(tax); err != nil {
		return nil, err
	}
	if b.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO bookings (id, customer_id, package_id, status, original_amount, tax_amount, total_amount, seat)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8)
		RETURNING created_at, updated_at`,
		b.ID, b.CustomerID, b.PackageID, b.Status, b.OriginalAmount.String(), b.TaxAmount.String(), b.TotalAmount.String(), b.Seat).
		Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return b, nil
}

func (r *PGBookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	page := f.Page.normalized()

	var (
		where []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, page.Offset, page.Limit)
	query += fmt.Sprintf(` ORDER BY created_at, id OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id))
	if err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateSeat(ctx context.Context, id, seat string) (*domain.Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `UPDATE bookings SET seat=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, seat, id))
	if err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
