package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PackageType string

const (
	PackageTypeSuborbital   PackageType = "SUBORBITAL"
	PackageTypeSpaceStation PackageType = "SPACE_STATION"
)

func (t PackageType) Valid() bool {
	return t == PackageTypeSuborbital || t == PackageTypeSpaceStation
}

// Package is a catalog item. Availability gates new bookings only.
type Package struct {
	ID          string
	Name        string
	Description string
	Type        PackageType
	Price       decimal.Decimal
	Available   bool
	CreatedAt   time.Time
}

// TaxRule is keyed by origin country and destination, at most one per pair.
type TaxRule struct {
	ID            string
	OriginCountry string
	Destination   string
	Percentage    decimal.Decimal
	Description   string
}

type Currency struct {
	ID           string
	Name         string
	Code         string
	ExchangeRate decimal.Decimal
}
