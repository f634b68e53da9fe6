package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/trips"
	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	service  trips.TripUseCase
	operator gin.HandlerFunc
}

type attachRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Seat      string `json:"seat"`
}

type tripDetailsResponse struct {
	tripResponse
	Attachments []attachmentResponse `json:"attachments"`
}

type manifestEntryResponse struct {
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	Seat       string `json:"seat"`
	Status     string `json:"status"`
	AttachedAt string `json:"attached_at"`
}

// NewTripHandler guards trip writes and lifecycle transitions with operator.
func NewTripHandler(service trips.TripUseCase, operator gin.HandlerFunc) *TripHandler {
	return &TripHandler{service: service, operator: orPass(operator)}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/manifest", h.manifest)
	router.GET("/:id/manifest.csv", h.exportManifest)

	ops := router.Group("", h.operator)
	ops.POST("/", h.create)
	ops.PATCH("/:id", h.update)
	ops.POST("/:id/bookings", h.attach)
	ops.DELETE("/:id/bookings/:booking_id", h.detach)
	ops.POST("/:id/start", h.start)
	ops.POST("/:id/complete", h.complete)
	ops.POST("/:id/cancel", h.cancel)
}

func (h *TripHandler) create(c *gin.Context) {
	var req trips.TripInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	trip, err := h.service.CreateTrip(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTripResponse(trip))
}

func (h *TripHandler) list(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	list, err := h.service.ListTrips(c.Request.Context(), repository.TripFilter{
		PackageID: c.Query("package_id"),
		Status:    domain.TripStatus(c.Query("status")),
		Page:      page,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]tripResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toTripResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TripHandler) get(c *gin.Context) {
	details, err := h.service.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tripDetailsResponse{
		tripResponse: toTripResponse(&details.Trip),
		Attachments:  toAttachmentResponses(details.Attachments),
	})
}

func (h *TripHandler) update(c *gin.Context) {
	var patch trips.TripPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	trip, err := h.service.UpdateTrip(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}

func (h *TripHandler) attach(c *gin.Context) {
	var req attachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	attachment, err := h.service.AttachBooking(c.Request.Context(), c.Param("id"), req.BookingID, req.Seat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAttachmentResponses([]domain.TripAttachment{*attachment})[0])
}

func (h *TripHandler) detach(c *gin.Context) {
	if err := h.service.DetachBooking(c.Request.Context(), c.Param("id"), c.Param("booking_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) start(c *gin.Context) {
	h.transition(c, h.service.StartTrip)
}

func (h *TripHandler) complete(c *gin.Context) {
	h.transition(c, h.service.CompleteTrip)
}

func (h *TripHandler) cancel(c *gin.Context) {
	h.transition(c, h.service.CancelTrip)
}

func (h *TripHandler) transition(c *gin.Context, fn func(ctx context.Context, id string) (*domain.Trip, error)) {
	trip, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}

func (h *TripHandler) manifest(c *gin.Context) {
	entries, err := h.service.Manifest(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]manifestEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, manifestEntryResponse{
			BookingID:  e.BookingID,
			CustomerID: e.CustomerID,
			Seat:       e.Seat,
			Status:     string(e.BookingStatus),
			AttachedAt: e.AttachedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TripHandler) exportManifest(c *gin.Context) {
	id := c.Param("id")
	data, err := h.service.ExportManifest(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="manifest-`+id+`.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
