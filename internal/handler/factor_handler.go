package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/pagination"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type FinancialFactorHandler struct {
	factorService service.FinancialFactorService
}

func NewFinancialFactorHandler(factorService service.FinancialFactorService) *FinancialFactorHandler {
	return &FinancialFactorHandler{factorService: factorService}
}

func (h *FinancialFactorHandler) RegisterRoutes(router *gin.RouterGroup) {
	factors := router.Group("/api/financial-factors")
	{
		factors.GET("", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListFactors)
		factors.POST("", middleware.RequireRole("admin", "billing_admin"), h.CreateFactor)
		factors.PUT("/:id", middleware.RequireRole("admin", "billing_admin"), h.UpdateFactor)
		factors.POST("/:id/freeze", middleware.RequireRole("admin"), h.FreezeFactor)
	}
}

// ListFactors returns a paginated list of financial factors
// @Summary      List financial factors
// @Description  Retrieves a paginated list of financial factors across all years and scopes
// @Tags         financial-factors
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/financial-factors [get]
func (h *FinancialFactorHandler) ListFactors(c *gin.Context) {
	params := pagination.Parse(c)

	factors, total, err := h.factorService.ListFactors(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"factors": factors,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// CreateFactor creates a new draft financial factor
// @Summary      Create financial factor
// @Description  Creates a new financial factor in draft state; only frozen factors participate in pricing
// @Tags         financial-factors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.FinancialFactorRequest  true  "Create Factor Payload"
// @Success      201      {object}  response.Response{data=service.FinancialFactorResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/financial-factors [post]
func (h *FinancialFactorHandler) CreateFactor(c *gin.Context) {
	var req service.FinancialFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	factor, err := h.factorService.CreateFactor(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, factor))
}

// UpdateFactor updates a draft financial factor
// @Summary      Update financial factor
// @Description  Updates a draft factor; frozen factors are append-only and reject edits
// @Tags         financial-factors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Factor ID"
// @Param        payload  body      service.FinancialFactorRequest  true  "Update Factor Payload"
// @Success      200      {object}  response.Response{data=service.FinancialFactorResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/financial-factors/{id} [put]
func (h *FinancialFactorHandler) UpdateFactor(c *gin.Context) {
	var req service.FinancialFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	factor, err := h.factorService.UpdateFactor(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, factor))
}

// FreezeFactor marks a financial factor as frozen
// @Summary      Freeze financial factor
// @Description  Freezes a factor making it available for pricing; freezing is idempotent and irreversible
// @Tags         financial-factors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Factor ID"
// @Success      200  {object}  response.Response{data=service.FinancialFactorResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/financial-factors/{id}/freeze [post]
func (h *FinancialFactorHandler) FreezeFactor(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	factor, err := h.factorService.FreezeFactor(c.Request.Context(), c.Param("id"), userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, factor))
}
