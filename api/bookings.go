package api

import (
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/Domenick1991/spacebooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	PackageID  string `json:"package_id" binding:"required"`
	Seat       string `json:"seat"`
}

type bookingDetailsResponse struct {
	bookingResponse
	Payments []paymentResponse    `json:"payments"`
	Trips    []attachmentResponse `json:"trips"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID: req.CustomerID,
		PackageID:  req.PackageID,
		Seat:       req.Seat,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), repository.BookingFilter{
		CustomerID: c.Query("customer_id"),
		Status:     domain.BookingStatus(c.Query("status")),
		Page:       page,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	details, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingDetailsResponse{
		bookingResponse: toBookingResponse(&details.Booking),
		Payments:        toPaymentResponses(details.Payments),
		Trips:           toAttachmentResponses(details.Trips),
	})
}

func (h *BookingHandler) update(c *gin.Context) {
	var patch booking.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}
