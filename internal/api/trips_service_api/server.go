package trips_service_api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/api/errs"
	"github.com/Domenick1991/spacebooking/internal/api/rpc"
	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/trips"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "spacebooking.trips.v1.TripsService"

// Server exposes trip lifecycle and manifest operations over gRPC.
type Server struct {
	trips trips.TripUseCase
}

func NewServer(trips trips.TripUseCase) *Server {
	return &Server{trips: trips}
}

func Register(registrar grpc.ServiceRegistrar, s *Server) {
	registrar.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			rpc.Unary(ServiceName, "GetTrip", s.GetTrip),
			rpc.Unary(ServiceName, "ListTrips", s.ListTrips),
			rpc.Unary(ServiceName, "AttachBooking", s.AttachBooking),
			rpc.Unary(ServiceName, "DetachBooking", s.DetachBooking),
			rpc.Unary(ServiceName, "StartTrip", s.transition(s.trips.StartTrip)),
			rpc.Unary(ServiceName, "CompleteTrip", s.transition(s.trips.CompleteTrip)),
			rpc.Unary(ServiceName, "CancelTrip", s.transition(s.trips.CancelTrip)),
			rpc.Unary(ServiceName, "ExportManifest", s.ExportManifest),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "spacebooking/trips/v1/trips.proto",
	}, s)
}

func (s *Server) GetTrip(ctx context.Context, req *structpb.Struct) (any, error) {
	id, err := rpc.Required(req, "id")
	if err != nil {
		return nil, err
	}
	details, err := s.trips.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPBTrip(&details.Trip)
	attachments := make([]any, 0, len(details.Attachments))
	for _, a := range details.Attachments {
		attachments = append(attachments, toPBAttachment(&a))
	}
	resp["attachments"] = attachments
	return rpc.Struct(resp)
}

func (s *Server) ListTrips(ctx context.Context, req *structpb.Struct) (any, error) {
	list, err := s.trips.ListTrips(ctx, repository.TripFilter{
		PackageID: rpc.String(req, "package_id"),
		Status:    domain.TripStatus(rpc.String(req, "status")),
		Page:      rpc.Page(req),
	})
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(list))
	for i := range list {
		items = append(items, toPBTrip(&list[i]))
	}
	return rpc.List("trips", items)
}

func (s *Server) AttachBooking(ctx context.Context, req *structpb.Struct) (any, error) {
	tripID, err := rpc.Required(req, "trip_id")
	if err != nil {
		return nil, err
	}
	bookingID, err := rpc.Required(req, "booking_id")
	if err != nil {
		return nil, err
	}
	attachment, err := s.trips.AttachBooking(ctx, tripID, bookingID, rpc.String(req, "seat"))
	if err != nil {
		return nil, err
	}
	return rpc.Struct(toPBAttachment(attachment))
}

func (s *Server) DetachBooking(ctx context.Context, req *structpb.Struct) (any, error) {
	tripID, err := rpc.Required(req, "trip_id")
	if err != nil {
		return nil, err
	}
	bookingID, err := rpc.Required(req, "booking_id")
	if err != nil {
		return nil, err
	}
	if err := s.trips.DetachBooking(ctx, tripID, bookingID); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) transition(fn func(ctx context.Context, id string) (*domain.Trip, error)) rpc.Call {
	return func(ctx context.Context, req *structpb.Struct) (any, error) {
		id, err := rpc.Required(req, "id")
		if err != nil {
			return nil, err
		}
		trip, err := fn(ctx, id)
		if err != nil {
			return nil, err
		}
		return rpc.Struct(toPBTrip(trip))
	}
}

// ExportManifest returns the CSV manifest as an HttpBody.
func (s *Server) ExportManifest(ctx context.Context, req *structpb.Struct) (any, error) {
	id, err := rpc.Required(req, "id")
	if err != nil {
		return nil, err
	}
	return s.manifestBody(ctx, id)
}

func (s *Server) manifestBody(ctx context.Context, id string) (*httpbody.HttpBody, error) {
	data, err := s.trips.ExportManifest(ctx, id)
	if err != nil {
		return nil, err
	}
	return &httpbody.HttpBody{ContentType: "text/csv", Data: data}, nil
}

// RegisterGateway serves GET /v1/trips/{id}/manifest on the gateway mux.
func RegisterGateway(mux *runtime.ServeMux, s *Server) error {
	return mux.HandlePath(http.MethodGet, "/v1/trips/{id}/manifest", func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		body, err := s.manifestBody(r.Context(), params["id"])
		if err != nil {
			code := errs.HTTPStatus(err)
			msg := err.Error()
			if code >= http.StatusInternalServerError {
				msg = "internal error"
			}
			http.Error(w, msg, code)
			return
		}
		w.Header().Set("Content-Type", body.GetContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="manifest-`+params["id"]+`.csv"`)
		_, _ = w.Write(body.GetData())
	})
}

func toPBTrip(t *domain.Trip) map[string]any {
	return map[string]any{
		"id":              t.ID,
		"package_id":      t.PackageID,
		"departure_at":    rpc.Time(t.DepartureAt),
		"return_at":       rpc.Time(t.ReturnAt()),
		"duration_hours":  t.DurationHours,
		"description":     t.Description,
		"status":          string(t.Status),
		"capacity":        t.Capacity,
		"passenger_count": t.PassengerCount,
		"available_seats": t.AvailableSeats(),
	}
}

func toPBAttachment(a *domain.TripAttachment) map[string]any {
	return map[string]any{
		"trip_id":     a.TripID,
		"booking_id":  a.BookingID,
		"seat":        a.Seat,
		"attached_at": rpc.Time(a.AttachedAt),
	}
}
