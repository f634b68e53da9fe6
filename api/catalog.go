package api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	service  catalog.CatalogUseCase
	operator gin.HandlerFunc
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

type quoteResponse struct {
	Original   decimal.Decimal `json:"original"`
	Percentage decimal.Decimal `json:"percentage"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

func NewCatalogHandler(service catalog.CatalogUseCase, operator gin.HandlerFunc) *CatalogHandler {
	return &CatalogHandler{service: service, operator: orPass(operator)}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup) {
	router.GET("/packages", h.listPackages)
	router.GET("/packages/:id", h.getPackage)
	router.POST("/packages", h.operator, h.createPackage)
	router.PUT("/packages/:id/availability", h.operator, h.setAvailability)

	router.GET("/tax-rules", h.listTaxRules)
	router.POST("/tax-rules", h.operator, h.createTaxRule)
	router.GET("/tax-quote", h.quote)

	router.GET("/currencies", h.listCurrencies)
	router.GET("/currencies/:code", h.getCurrency)
	router.POST("/currencies", h.operator, h.createCurrency)
}

func (h *CatalogHandler) createPackage(c *gin.Context) {
	var req catalog.PackageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pkg, err := h.service.CreatePackage(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPackageResponse(pkg))
}

func (h *CatalogHandler) listPackages(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	packages, err := h.service.ListPackages(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]packageResponse, 0, len(packages))
	for i := range packages {
		resp = append(resp, toPackageResponse(&packages[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) getPackage(c *gin.Context) {
	pkg, err := h.service.GetPackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPackageResponse(pkg))
}

func (h *CatalogHandler) setAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pkg, err := h.service.SetPackageAvailability(c.Request.Context(), c.Param("id"), *req.Available)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPackageResponse(pkg))
}

func (h *CatalogHandler) createTaxRule(c *gin.Context) {
	var req catalog.TaxRuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.service.CreateTaxRule(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taxRuleResponse(*rule))
}

func (h *CatalogHandler) listTaxRules(c *gin.Context) {
	rules, err := h.service.ListTaxRules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]taxRuleResponse, 0, len(rules))
	for _, r := range rules {
		resp = append(resp, taxRuleResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// quote answers GET /tax-quote?origin=BR&destination=space-domain&amount=250000.
func (h *CatalogHandler) quote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		badRequest(c, fmt.Errorf("%w: amount must be a decimal number", domain.ErrValidation))
		return
	}
	q, err := h.service.QuoteTax(c.Request.Context(), c.Query("origin"), c.Query("destination"), amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse(q))
}

func (h *CatalogHandler) createCurrency(c *gin.Context) {
	var req catalog.CurrencyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	currency, err := h.service.CreateCurrency(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, currencyResponse(*currency))
}

func (h *CatalogHandler) listCurrencies(c *gin.Context) {
	currencies, err := h.service.ListCurrencies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]currencyResponse, 0, len(currencies))
	for _, cur := range currencies {
		resp = append(resp, currencyResponse(cur))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) getCurrency(c *gin.Context) {
	currency, err := h.service.GetCurrency(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, currencyResponse(*currency))
}
