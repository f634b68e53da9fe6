package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TripFilter struct {
	PackageID string
	Status    domain.TripStatus
	Page
}

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)
	List(ctx context.Context, filter TripFilter) ([]domain.Trip, error)
	Update(ctx context.Context, trip *domain.Trip) error
	UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error

	ListAttachments(ctx context.Context, tripID string) ([]domain.TripAttachment, error)
	ListBookingAttachments(ctx context.Context, bookingID string) ([]domain.TripAttachment, error)
	IsAttached(ctx context.Context, tripID, bookingID string) (bool, error)
	ActiveTripForBooking(ctx context.Context, bookingID string) (string, error)
	Attach(ctx context.Context, attachment *domain.TripAttachment) error
	Detach(ctx context.Context, tripID, bookingID string) (bool, error)
	CascadeBookingStatus(ctx context.Context, tripID string, status domain.BookingStatus) ([]domain.Booking, error)
	Manifest(ctx context.Context, tripID string) ([]domain.ManifestEntry, error)
}

type PGTripRepository struct {
	base
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{base{db: db}}
}

const tripColumns = `t.id, t.package_id, t.departure_at, t.duration_hours, t.description, t.status, t.capacity,
	(SELECT COUNT(*) FROM trip_bookings tb WHERE tb.trip_id = t.id), t.created_at, t.updated_at`

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.PackageID, &t.DepartureAt, &t.DurationHours, &t.Description, &t.Status, &t.Capacity,
		&t.PassengerCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTripRepository) Create(ctx context.Context, t *domain.Trip) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO trips (id, package_id, departure_at, duration_hours, description, status, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		t.ID, t.PackageID, t.DepartureAt, t.DurationHours, t.Description, t.Status, t.Capacity).
		Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	return nil
}

func (r *PGTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	t, err := scanTrip(r.conn(ctx).QueryRow(ctx, `SELECT `+tripColumns+` FROM trips t WHERE t.id=$1`, id))
	if err != nil {
		return nil, notFound(err, "trip "+id)
	}
	return t, nil
}

// GetByIDForUpdate locks the trip row first and counts attachments afterwards, so the
// count reflects every attach committed by whoever held the lock before us.
func (r *PGTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	if _, err := r.conn(ctx).Exec(ctx, `SELECT 1 FROM trips WHERE id=$1 FOR UPDATE`, id); err != nil {
		return nil, fmt.Errorf("lock trip %s: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

func (r *PGTripRepository) List(ctx context.Context, f TripFilter) ([]domain.Trip, error) {
	page := f.Page.normalized()

	var (
		where []string
		args  []any
	)
	if f.PackageID != "" {
		args = append(args, f.PackageID)
		where = append(where, fmt.Sprintf("t.package_id=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("t.status=$%d", len(args)))
	}

	query := `SELECT ` + tripColumns + ` FROM trips t`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, page.Offset, page.Limit)
	query += fmt.Sprintf(` ORDER BY t.departure_at, t.id OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) Update(ctx context.Context, t *domain.Trip) error {
	err := r.conn(ctx).QueryRow(ctx, `UPDATE trips
		SET departure_at=$2, duration_hours=$3, description=$4, capacity=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`, t.ID, t.DepartureAt, t.DurationHours, t.Description, t.Capacity).Scan(&t.UpdatedAt)
	if err != nil {
		return notFound(err, "trip "+t.ID)
	}
	return nil
}

func (r *PGTripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	cmd, err := r.conn(ctx).Exec(ctx, `UPDATE trips SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update trip status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PGTripRepository) listAttachments(ctx context.Context, column, id string) ([]domain.TripAttachment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT trip_id, booking_id, seat, attached_at FROM trip_bookings WHERE `+column+`=$1 ORDER BY attached_at, booking_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list trip attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]domain.TripAttachment, 0)
	for rows.Next() {
		var a domain.TripAttachment
		if err := rows.Scan(&a.TripID, &a.BookingID, &a.Seat, &a.AttachedAt); err != nil {
			return nil, fmt.Errorf("scan trip attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *PGTripRepository) ListAttachments(ctx context.Context, tripID string) ([]domain.TripAttachment, error) {
	return r.listAttachments(ctx, "trip_id", tripID)
}

func (r *PGTripRepository) ListBookingAttachments(ctx context.Context, bookingID string) ([]domain.TripAttachment, error) {
	return r.listAttachments(ctx, "booking_id", bookingID)
}

func (r *PGTripRepository) IsAttached(ctx context.Context, tripID, bookingID string) (bool, error) {
	var attached bool
	if err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trip_bookings WHERE trip_id=$1 AND booking_id=$2)`, tripID, bookingID).Scan(&attached); err != nil {
		return false, fmt.Errorf("check trip attachment: %w", err)
	}
	return attached, nil
}

// ActiveTripForBooking returns the Scheduled or InProgress trip holding the booking, or "".
func (r *PGTripRepository) ActiveTripForBooking(ctx context.Context, bookingID string) (string, error) {
	var tripID string
	err := r.conn(ctx).QueryRow(ctx, `SELECT tb.trip_id FROM trip_bookings tb
		JOIN trips t ON t.id = tb.trip_id
		WHERE tb.booking_id=$1 AND t.status IN ($2, $3)
		LIMIT 1`, bookingID, domain.TripStatusScheduled, domain.TripStatusInProgress).Scan(&tripID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find active trip for booking: %w", err)
	}
	return tripID, nil
}

func (r *PGTripRepository) Attach(ctx context.Context, a *domain.TripAttachment) error {
	err := r.conn(ctx).QueryRow(ctx, `INSERT INTO trip_bookings (trip_id, booking_id, seat) VALUES ($1, $2, $3) RETURNING attached_at`,
		a.TripID, a.BookingID, a.Seat).Scan(&a.AttachedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s is already attached to trip %s", domain.ErrConflict, a.BookingID, a.TripID)
		}
		return fmt.Errorf("attach booking: %w", err)
	}
	return nil
}

func (r *PGTripRepository) Detach(ctx context.Context, tripID, bookingID string) (bool, error) {
	cmd, err := r.conn(ctx).Exec(ctx, `DELETE FROM trip_bookings WHERE trip_id=$1 AND booking_id=$2`, tripID, bookingID)
	if err != nil {
		return false, fmt.Errorf("detach booking: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// CascadeBookingStatus moves every booking attached to the trip to status in one statement
// and returns the updated bookings.
func (r *PGTripRepository) CascadeBookingStatus(ctx context.Context, tripID string, status domain.BookingStatus) ([]domain.Booking, error) {
	rows, err := r.conn(ctx).Query(ctx, `UPDATE bookings b SET status=$2, updated_at=now()
		FROM trip_bookings tb
		WHERE tb.booking_id = b.id AND tb.trip_id = $1
		RETURNING b.id, b.customer_id, b.package_id, b.status, b.original_amount::text, b.tax_amount::text,
			b.total_amount::text, b.seat, b.created_at, b.updated_at`, tripID, status)
	if err != nil {
		return nil, fmt.Errorf("cascade booking status: %w", err)
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

func (r *PGTripRepository) Manifest(ctx context.Context, tripID string) ([]domain.ManifestEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT b.id, b.customer_id, tb.seat, b.status, tb.attached_at
		FROM trip_bookings tb
		JOIN bookings b ON b.id = tb.booking_id
		WHERE tb.trip_id=$1
		ORDER BY tb.attached_at, b.id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ManifestEntry, 0)
	for rows.Next() {
		var e domain.ManifestEntry
		if err := rows.Scan(&e.BookingID, &e.CustomerID, &e.Seat, &e.BookingStatus, &e.AttachedAt); err != nil {
			return nil, fmt.Errorf("scan manifest entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ TripRepository = (*PGTripRepository)(nil)
