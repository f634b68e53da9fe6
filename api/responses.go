package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type customerResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	BirthDate           string `json:"birth_date"`
	Document            string `json:"document"`
	Phone               string `json:"phone"`
	Country             string `json:"country"`
	Address             string `json:"address"`
	MedicalStatus       string `json:"medical_status"`
	CertificationStatus string `json:"certification_status"`
	Eligible            bool   `json:"eligible"`
}

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		BirthDate:           c.BirthDate.Format(time.DateOnly),
		Document:            c.Document,
		Phone:               c.Phone,
		Country:             c.Country,
		Address:             c.Address,
		MedicalStatus:       string(c.MedicalStatus),
		CertificationStatus: string(c.CertificationStatus),
		Eligible:            c.IsEligible(),
	}
}

type clearanceResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Approved   bool   `json:"approved"`
	Details    string `json:"details"`
	VerifiedAt string `json:"verified_at"`
}

func toClearanceResponse(m *domain.MedicalClearance) clearanceResponse {
	return clearanceResponse{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Approved:   m.Approved,
		Details:    m.Details,
		VerifiedAt: m.VerifiedAt.Format(time.RFC3339),
	}
}

type certificationResponse struct {
	ID          string `json:"id"`
	CustomerID  string `json:"customer_id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CertifiedAt string `json:"certified_at"`
}

func toCertificationResponse(c *domain.Certification) certificationResponse {
	return certificationResponse{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		Description: c.Description,
		Completed:   c.Completed,
		CertifiedAt: c.CertifiedAt.Format(time.RFC3339),
	}
}

type packageResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

func toPackageResponse(p *domain.Package) packageResponse {
	return packageResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		Price:       p.Price,
		Available:   p.Available,
	}
}

type taxRuleResponse struct {
	ID            string          `json:"id"`
	OriginCountry string          `json:"origin_country"`
	Destination   string          `json:"destination"`
	Percentage    decimal.Decimal `json:"percentage"`
	Description   string          `json:"description"`
}

type currencyResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

type bookingResponse struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	PackageID      string          `json:"package_id"`
	Status         string          `json:"status"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Seat           string          `json:"seat"`
	CreatedAt      string          `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		CustomerID:     b.CustomerID,
		PackageID:      b.PackageID,
		Status:         string(b.Status),
		OriginalAmount: b.OriginalAmount,
		TaxAmount:      b.TaxAmount,
		TotalAmount:    b.TotalAmount,
		Seat:           b.Seat,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}

type attachmentResponse struct {
	TripID     string `json:"trip_id"`
	BookingID  string `json:"booking_id"`
	Seat       string `json:"seat"`
	AttachedAt string `json:"attached_at"`
}

func toAttachmentResponses(list []domain.TripAttachment) []attachmentResponse {
	out := make([]attachmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, attachmentResponse{
			TripID:     a.TripID,
			BookingID:  a.BookingID,
			Seat:       a.Seat,
			AttachedAt: a.AttachedAt.Format(time.RFC3339),
		})
	}
	return out
}

type tripResponse struct {
	ID             string `json:"id"`
	PackageID      string `json:"package_id"`
	DepartureAt    string `json:"departure_at"`
	ReturnAt       string `json:"return_at"`
	DurationHours  int    `json:"duration_hours"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	Capacity       int    `json:"capacity"`
	PassengerCount int    `json:"passenger_count"`
	AvailableSeats int    `json:"available_seats"`
}

func toTripResponse(t *domain.Trip) tripResponse {
	return tripResponse{
		ID:             t.ID,
		PackageID:      t.PackageID,
		DepartureAt:    t.DepartureAt.Format(time.RFC3339),
		ReturnAt:       t.ReturnAt().Format(time.RFC3339),
		DurationHours:  t.DurationHours,
		Description:    t.Description,
		Status:         string(t.Status),
		Capacity:       t.Capacity,
		PassengerCount: t.PassengerCount,
		AvailableSeats: t.AvailableSeats(),
	}
}

type passengerResponse struct {
	ID             string `json:"id"`
	TripID         string `json:"trip_id"`
	CustomerID     string `json:"customer_id"`
	Seat           string `json:"seat"`
	Notes          string `json:"notes"`
	BoardingStatus string `json:"boarding_status"`
}

func toPassengerResponse(p *domain.Passenger) passengerResponse {
	return passengerResponse{
		ID:             p.ID,
		TripID:         p.TripID,
		CustomerID:     p.CustomerID,
		Seat:           p.Seat,
		Notes:          p.Notes,
		BoardingStatus: string(p.BoardingStatus),
	}
}

type paymentResponse struct {
	ID                string          `json:"id"`
	BookingID         string          `json:"booking_id"`
	Amount            decimal.Decimal `json:"amount"`
	CurrencyCode      string          `json:"currency_code"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference,omitempty"`
	Method            string          `json:"method,omitempty"`
	PaidAt            string          `json:"paid_at"`
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		BookingID:         p.BookingID,
		Amount:            p.Amount,
		CurrencyCode:      p.CurrencyCode,
		Status:            string(p.Status),
		ExternalReference: p.ExternalReference,
		Method:            p.Method,
		PaidAt:            p.PaidAt.Format(time.RFC3339),
	}
}

func toPaymentResponses(list []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(list))
	for i := range list {
		out = append(out, toPaymentResponse(&list[i]))
	}
	return out
}

// pageFromQuery reads offset and limit. Missing values fall back to the repository defaults.
func pageFromQuery(c *gin.Context) (repository.Page, bool) {
	var page repository.Page
	for name, dst := range map[string]*int{"offset": &page.Offset, "limit": &page.Limit} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name, Code: domain.Kind(domain.ErrValidation)})
			return page, false
		}
		*dst = v
	}
	return page, true
}
