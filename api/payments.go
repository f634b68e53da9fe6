package api

import (
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/service/payments"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service  payments.PaymentUseCase
	operator gin.HandlerFunc
}

type paymentStatusRequest struct {
	Status domain.PaymentStatus `json:"status" binding:"required"`
}

func NewPaymentHandler(service payments.PaymentUseCase, operator gin.HandlerFunc) *PaymentHandler {
	return &PaymentHandler{service: service, operator: orPass(operator)}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.GET("/payments", h.list)
	router.GET("/payments/:id", h.get)
	router.POST("/payments", h.operator, h.record)
	router.PATCH("/payments/:id/status", h.operator, h.updateStatus)
	router.POST("/bookings/:id/checkout", h.checkout)
}

func (h *PaymentHandler) record(c *gin.Context) {
	var req payments.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	payment, err := h.service.RecordPayment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

func (h *PaymentHandler) list(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	list, err := h.service.ListPayments(c.Request.Context(), c.Query("booking_id"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponses(list))
}

func (h *PaymentHandler) get(c *gin.Context) {
	payment, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) updateStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	payment, err := h.service.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) checkout(c *gin.Context) {
	checkout, err := h.service.StartCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}
