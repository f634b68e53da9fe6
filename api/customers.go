package api

import (
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/service/eligibility"
	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	service  eligibility.EligibilityUseCase
	operator gin.HandlerFunc
}

type medicalVerificationRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Details  string `json:"details"`
}

type certificationRequest struct {
	Description string `json:"description" binding:"required"`
	Completed   bool   `json:"completed"`
}

// NewCustomerHandler guards clearance and certification writes with operator. A nil
// operator leaves them open.
func NewCustomerHandler(service eligibility.EligibilityUseCase, operator gin.HandlerFunc) *CustomerHandler {
	return &CustomerHandler{service: service, operator: orPass(operator)}
}

func (h *CustomerHandler) Register(router *gin.RouterGroup) {
	customers := router.Group("/customers")
	customers.POST("", h.create)
	customers.GET("", h.list)
	customers.GET("/:id", h.get)
	customers.PATCH("/:id", h.update)
	customers.GET("/:id/eligibility", h.eligibility)
	customers.GET("/:id/clearances", h.listClearances)
	customers.POST("/:id/clearances", h.operator, h.recordClearance)
	customers.GET("/:id/certifications", h.listCertifications)
	customers.POST("/:id/certifications", h.operator, h.recordCertification)

	router.PATCH("/clearances/:id", h.operator, h.updateClearance)
	router.PATCH("/certifications/:id", h.operator, h.updateCertification)
}

func (h *CustomerHandler) create(c *gin.Context) {
	var req eligibility.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.service.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCustomerResponse(customer))
}

func (h *CustomerHandler) list(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	customers, err := h.service.ListCustomers(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]customerResponse, 0, len(customers))
	for i := range customers {
		resp = append(resp, toCustomerResponse(&customers[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) get(c *gin.Context) {
	customer, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) update(c *gin.Context) {
	var patch eligibility.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.service.UpdateCustomer(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) eligibility(c *gin.Context) {
	id := c.Param("id")
	eligible, err := h.service.IsEligible(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": id, "eligible": eligible})
}

func (h *CustomerHandler) listClearances(c *gin.Context) {
	list, err := h.service.ListMedicalClearances(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]clearanceResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toClearanceResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) recordClearance(c *gin.Context) {
	var req medicalVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	clearance, err := h.service.RecordMedicalVerification(c.Request.Context(), c.Param("id"), *req.Approved, req.Details)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClearanceResponse(clearance))
}

func (h *CustomerHandler) updateClearance(c *gin.Context) {
	var patch eligibility.ClearancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	clearance, err := h.service.UpdateMedicalClearance(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClearanceResponse(clearance))
}

func (h *CustomerHandler) listCertifications(c *gin.Context) {
	list, err := h.service.ListCertifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]certificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toCertificationResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) recordCertification(c *gin.Context) {
	var req certificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cert, err := h.service.RecordCertification(c.Request.Context(), c.Param("id"), req.Description, req.Completed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCertificationResponse(cert))
}

func (h *CustomerHandler) updateCertification(c *gin.Context) {
	var patch eligibility.CertificationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	cert, err := h.service.UpdateCertification(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCertificationResponse(cert))
}
