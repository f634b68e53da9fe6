package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PassengerRepository interface {
	Create(ctx context.Context, passenger *domain.Passenger) error
	GetByID(ctx context.Context, id string) (*domain.Passenger, error)
	List(ctx context.Context, tripID string, page Page) ([]domain.Passenger, error)
	CountByTrip(ctx context.Context, tripID string) (int, error)
	Update(ctx context.Context, passenger *domain.Passenger) error
	Delete(ctx context.Context, id string) error
}

type PGPassengerRepository struct {
	base
}

func NewPassengerRepository(db *pgxpool.Pool) PassengerRepository {
	return &PGPassengerRepository{base{db: db}}
}

const passengerColumns = `id, trip_id, customer_id, seat, notes, boarding_status, created_at, updated_at`

func scanPassenger(row pgx.Row) (*domain.Passenger, error) {
	var p domain.Passenger
	if err := row.Scan(&p.ID, &p.TripID, &p.CustomerID, &p.Seat, &p.Notes, &p.BoardingStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	err := r.conn(ctx).QueryRow(ctx, `INSERT INTO passengers (id, trip_id, customer_id, seat, notes, boarding_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.TripID, p.CustomerID, p.Seat, p.Notes, p.BoardingStatus).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer %s is already on trip %s", domain.ErrConflict, p.CustomerID, p.TripID)
		}
		return fmt.Errorf("create passenger: %w", err)
	}
	return nil
}

func (r *PGPassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	p, err := scanPassenger(r.conn(ctx).QueryRow(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "passenger "+id)
	}
	return p, nil
}

func (r *PGPassengerRepository) List(ctx context.Context, tripID string, page Page) ([]domain.Passenger, error) {
	page = page.normalized()
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+passengerColumns+` FROM passengers
		WHERE ($1 = '' OR trip_id = $1)
		ORDER BY created_at, id OFFSET $2 LIMIT $3`, tripID, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list passengers: %w", err)
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passenger: %w", err)
		}
		passengers = append(passengers, *p)
	}
	return passengers, rows.Err()
}

func (r *PGPassengerRepository) CountByTrip(ctx context.Context, tripID string) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM passengers WHERE trip_id=$1`, tripID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count passengers: %w", err)
	}
	return n, nil
}

func (r *PGPassengerRepository) Update(ctx context.Context, p *domain.Passenger) error {
	err := r.conn(ctx).QueryRow(ctx, `UPDATE passengers SET seat=$2, notes=$3, boarding_status=$4, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, p.ID, p.Seat, p.Notes, p.BoardingStatus).Scan(&p.UpdatedAt)
	if err != nil {
		return notFound(err, "passenger "+p.ID)
	}
	return nil
}

func (r *PGPassengerRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.conn(ctx).Exec(ctx, `DELETE FROM passengers WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete passenger: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: passenger %s", domain.ErrNotFound, id)
	}
	return nil
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)
