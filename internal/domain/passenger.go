package domain

import "time"

type BoardingStatus string

const (
	BoardingStatusPending   BoardingStatus = "PENDING"
	BoardingStatusConfirmed BoardingStatus = "CONFIRMED"
	BoardingStatusBoarded   BoardingStatus = "BOARDED"
	BoardingStatusNoShow    BoardingStatus = "NO_SHOW"
)

var boardingTransitions = map[BoardingStatus]map[BoardingStatus]bool{
	BoardingStatusPending:   {BoardingStatusConfirmed: true, BoardingStatusNoShow: true},
	BoardingStatusConfirmed: {BoardingStatusBoarded: true, BoardingStatusNoShow: true},
}

func CanTransitionBoarding(from, to BoardingStatus) bool {
	return boardingTransitions[from][to]
}

// Passenger is a trip-local roster record, independent of booking attachments.
type Passenger struct {
	ID             string
	TripID         string
	CustomerID     string
	Seat           string
	Notes          string
	BoardingStatus BoardingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
