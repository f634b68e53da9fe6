package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusConfirmed || s == PaymentStatusFailed
}

type Payment struct {
	ID                string
	BookingID         string
	Amount            decimal.Decimal
	CurrencyCode      string
	Status            PaymentStatus
	ExternalReference string
	Method            string
	PaidAt            time.Time
}

var externalStatusCodes = map[string]PaymentStatus{
	"approved":     PaymentStatusConfirmed,
	"captured":     PaymentStatusConfirmed,
	"paid":         PaymentStatusConfirmed,
	"pending":      PaymentStatusPending,
	"in_process":   PaymentStatusPending,
	"authorized":   PaymentStatusPending,
	"created":      PaymentStatusPending,
	"rejected":     PaymentStatusFailed,
	"cancelled":    PaymentStatusFailed,
	"failed":       PaymentStatusFailed,
	"refunded":     PaymentStatusFailed,
	"charged_back": PaymentStatusFailed,
}

// MapExternalStatus translates a gateway status code. Unknown codes are Pending.
func MapExternalStatus(code string) PaymentStatus {
	if status, ok := externalStatusCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return status
	}
	return PaymentStatusPending
}
