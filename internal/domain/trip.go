package domain

import "time"

type TripStatus string

const (
	TripStatusScheduled  TripStatus = "SCHEDULED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

var tripTransitions = map[TripStatus]map[TripStatus]bool{
	TripStatusScheduled:  {TripStatusInProgress: true, TripStatusCancelled: true},
	TripStatusInProgress: {TripStatusCompleted: true},
}

func CanTransitionTrip(from, to TripStatus) bool {
	return tripTransitions[from][to]
}

// CascadeStatus is the booking status every attached booking takes when the trip enters to.
func CascadeStatus(to TripStatus) (BookingStatus, bool) {
	switch to {
	case TripStatusInProgress:
		return BookingStatusBoarded, true
	case TripStatusCompleted:
		return BookingStatusCompleted, true
	case TripStatusCancelled:
		return BookingStatusCancelled, true
	}
	return "", false
}

// Trip is a scheduled departure of a package. PassengerCount is derived from the
// attached bookings when the trip is loaded and is never persisted.
type Trip struct {
	ID             string
	PackageID      string
	DepartureAt    time.Time
	DurationHours  int
	Description    string
	Status         TripStatus
	Capacity       int
	PassengerCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Trip) ReturnAt() time.Time {
	return t.DepartureAt.Add(time.Duration(t.DurationHours) * time.Hour)
}

func (t *Trip) AvailableSeats() int {
	if free := t.Capacity - t.PassengerCount; free > 0 {
		return free
	}
	return 0
}

// Mutable reports whether trip fields may still be edited.
func (t *Trip) Mutable() bool {
	return t.Status != TripStatusCompleted && t.Status != TripStatusCancelled
}

// ManifestEntry is one attached booking as it appears on an exported manifest.
type ManifestEntry struct {
	BookingID     string
	CustomerID    string
	Seat          string
	BookingStatus BookingStatus
	AttachedAt    time.Time
}
