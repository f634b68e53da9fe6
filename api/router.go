package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Customers  *CustomerHandler
	Catalog    *CatalogHandler
	Bookings   *BookingHandler
	Trips      *TripHandler
	Passengers *PassengerHandler
	Payments   *PaymentHandler
	Webhook    *WebhookHandler
}

// NewRouter mounts the REST API under /api/v1 and the gateway webhook under /webhooks.
// webhookLimit may be nil.
func NewRouter(h Handlers, log *zap.Logger, webhookLimit gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", signatureHeader},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	h.Customers.Register(v1)
	h.Catalog.Register(v1)
	h.Bookings.Register(v1.Group("/bookings"))
	h.Trips.Register(v1.Group("/trips"))
	h.Passengers.Register(v1.Group("/passengers"))
	h.Payments.Register(v1)

	var limits []gin.HandlerFunc
	if webhookLimit != nil {
		limits = append(limits, webhookLimit)
	}
	h.Webhook.Register(router.Group("/webhooks"), limits...)

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			log.Error("request failed", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
