package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/spacebooking/internal/api/rpc"
	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "spacebooking.bookings.v1.BookingsService"

// Server exposes booking operations over gRPC with structpb messages.
type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

func Register(registrar grpc.ServiceRegistrar, s *Server) {
	registrar.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			rpc.Unary(ServiceName, "CreateBooking", s.CreateBooking),
			rpc.Unary(ServiceName, "GetBooking", s.GetBooking),
			rpc.Unary(ServiceName, "ListBookings", s.ListBookings),
			rpc.Unary(ServiceName, "CancelBooking", s.CancelBooking),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "spacebooking/bookings/v1/bookings.proto",
	}, s)
}

func (s *Server) CreateBooking(ctx context.Context, req *structpb.Struct) (any, error) {
	customerID, err := rpc.Required(req, "customer_id")
	if err != nil {
		return nil, err
	}
	packageID, err := rpc.Required(req, "package_id")
	if err != nil {
		return nil, err
	}
	created, err := s.bookings.CreateBooking(ctx, booking.CreateBookingInput{
		CustomerID: customerID,
		PackageID:  packageID,
		Seat:       rpc.String(req, "seat"),
	})
	if err != nil {
		return nil, err
	}
	return rpc.Struct(toPBBooking(created))
}

func (s *Server) GetBooking(ctx context.Context, req *structpb.Struct) (any, error) {
	id, err := rpc.Required(req, "id")
	if err != nil {
		return nil, err
	}
	details, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toPBBooking(&details.Booking)
	payments := make([]any, 0, len(details.Payments))
	for _, p := range details.Payments {
		payments = append(payments, map[string]any{
			"id":            p.ID,
			"amount":        p.Amount.String(),
			"currency_code": p.CurrencyCode,
			"status":        string(p.Status),
			"paid_at":       rpc.Time(p.PaidAt),
		})
	}
	trips := make([]any, 0, len(details.Trips))
	for _, a := range details.Trips {
		trips = append(trips, map[string]any{
			"trip_id":     a.TripID,
			"seat":        a.Seat,
			"attached_at": rpc.Time(a.AttachedAt),
		})
	}
	resp["payments"] = payments
	resp["trips"] = trips
	return rpc.Struct(resp)
}

func (s *Server) ListBookings(ctx context.Context, req *structpb.Struct) (any, error) {
	list, err := s.bookings.ListBookings(ctx, repository.BookingFilter{
		CustomerID: rpc.String(req, "customer_id"),
		Status:     domain.BookingStatus(rpc.String(req, "status")),
		Page:       rpc.Page(req),
	})
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(list))
	for i := range list {
		items = append(items, toPBBooking(&list[i]))
	}
	return rpc.List("bookings", items)
}

func (s *Server) CancelBooking(ctx context.Context, req *structpb.Struct) (any, error) {
	id, err := rpc.Required(req, "id")
	if err != nil {
		return nil, err
	}
	cancelled, err := s.bookings.CancelBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return rpc.Struct(toPBBooking(cancelled))
}

func toPBBooking(b *domain.Booking) map[string]any {
	return map[string]any{
		"id":              b.ID,
		"customer_id":     b.CustomerID,
		"package_id":      b.PackageID,
		"status":          string(b.Status),
		"original_amount": b.OriginalAmount.String(),
		"tax_amount":      b.TaxAmount.String(),
		"total_amount":    b.TotalAmount.String(),
		"seat":            b.Seat,
		"created_at":      rpc.Time(b.CreatedAt),
	}
}
