package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "RESERVED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusBoarded   BookingStatus = "BOARDED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusReserved, BookingStatusCancelled, BookingStatusPaid, BookingStatusBoarded, BookingStatusCompleted:
		return true
	}
	return false
}

// Booking amounts are computed once at creation and never recomputed.
type Booking struct {
	ID             string
	CustomerID     string
	PackageID      string
	Status         BookingStatus
	OriginalAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Seat           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TripAttachment links a booking to a trip with its own seat label.
type TripAttachment struct {
	TripID     string
	BookingID  string
	Seat       string
	AttachedAt time.Time
}

// Customer facing transitions. Cascades from the trip lifecycle bypass this table.
var bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusReserved: {BookingStatusCancelled: true, BookingStatusPaid: true},
	BookingStatusPaid:     {BookingStatusBoarded: true},
	BookingStatusBoarded:  {BookingStatusCompleted: true},
}

func CanTransitionBooking(from, to BookingStatus) bool {
	return bookingTransitions[from][to]
}
