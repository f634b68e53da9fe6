package api

import (
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/service/passengers"
	"github.com/gin-gonic/gin"
)

type PassengerHandler struct {
	service  passengers.PassengerUseCase
	operator gin.HandlerFunc
}

func NewPassengerHandler(service passengers.PassengerUseCase, operator gin.HandlerFunc) *PassengerHandler {
	return &PassengerHandler{service: service, operator: orPass(operator)}
}

func (h *PassengerHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)

	ops := router.Group("", h.operator)
	ops.POST("/", h.create)
	ops.PATCH("/:id", h.update)
	ops.DELETE("/:id", h.remove)
}

func (h *PassengerHandler) create(c *gin.Context) {
	var req passengers.PassengerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	passenger, err := h.service.AddPassenger(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPassengerResponse(passenger))
}

func (h *PassengerHandler) list(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	list, err := h.service.ListPassengers(c.Request.Context(), c.Query("trip_id"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]passengerResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPassengerResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PassengerHandler) get(c *gin.Context) {
	passenger, err := h.service.GetPassenger(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(passenger))
}

func (h *PassengerHandler) update(c *gin.Context) {
	var patch passengers.PassengerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	passenger, err := h.service.UpdatePassenger(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(passenger))
}

func (h *PassengerHandler) remove(c *gin.Context) {
	if err := h.service.RemovePassenger(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
