package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/spacebooking/config"
	bookingsapi "github.com/Domenick1991/spacebooking/internal/api/bookings_service_api"
	tripsapi "github.com/Domenick1991/spacebooking/internal/api/trips_service_api"
	"github.com/Domenick1991/spacebooking/internal/service/booking"
	"github.com/Domenick1991/spacebooking/internal/service/trips"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Deps struct {
	// Router serves the REST API, the payment webhook and /healthz.
	Router   http.Handler
	Bookings booking.BookingUseCase
	Trips    trips.TripUseCase
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, deps Deps) error {
	s, err := newServers(cfg, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()
	log.Info("grpc server started", zap.String("address", cfg.GRPC.Address))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down servers")
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, deps Deps) (*Servers, error) {
	grpcSrv := grpc.NewServer()

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	tripsServer := tripsapi.NewServer(deps.Trips)
	bookingsapi.Register(grpcSrv, bookingsapi.NewServer(deps.Bookings))
	tripsapi.Register(grpcSrv, tripsServer)
	healthSrv.SetServingStatus(bookingsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(tripsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	handler, err := newHTTPHandler(cfg.HTTP, deps.Router, tripsServer)
	if err != nil {
		return nil, err
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		health: healthSrv,
	}, nil
}

// newHTTPHandler routes /v1/ to the gateway mux, /swagger/ to the docs UI and
// everything else to router.
func newHTTPHandler(cfg config.HTTPConfig, router http.Handler, trips *tripsapi.Server) (http.Handler, error) {
	mux := runtime.NewServeMux()
	if err := tripsapi.RegisterGateway(mux, trips); err != nil {
		return nil, fmt.Errorf("register trips gateway: %w", err)
	}

	handler := http.NewServeMux()
	handler.Handle("/v1/", mux)
	handler.Handle("/", router)

	if cfg.SwaggerDir != "" {
		doc := filepath.Join(cfg.SwaggerDir, "spacebooking.swagger.json")
		handler.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, doc)
		})
		handler.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
	return handler, nil
}
