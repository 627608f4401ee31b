package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/pagination"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type BusinessRuleHandler struct {
	ruleService service.BusinessRuleService
}

func NewBusinessRuleHandler(ruleService service.BusinessRuleService) *BusinessRuleHandler {
	return &BusinessRuleHandler{ruleService: ruleService}
}

func (h *BusinessRuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/api/business-rules")
	{
		rules.GET("", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListRules)
		rules.POST("", middleware.RequireRole("admin", "billing_admin"), h.CreateRule)
		rules.PUT("/:id", middleware.RequireRole("admin", "billing_admin"), h.UpdateRule)
		rules.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteRule)
	}
}

// ListRules returns a paginated list of business rules
// @Summary      List business rules
// @Description  Retrieves a paginated list of business rules ordered by priority
// @Tags         business-rules
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/business-rules [get]
func (h *BusinessRuleHandler) ListRules(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.ruleService.ListRules(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"rules": rules,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CreateRule creates a new business rule
// @Summary      Create business rule
// @Description  Creates a new business rule after validating its condition and action documents
// @Tags         business-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BusinessRuleRequest  true  "Create Rule Payload"
// @Success      201      {object}  response.Response{data=service.BusinessRuleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/business-rules [post]
func (h *BusinessRuleHandler) CreateRule(c *gin.Context) {
	var req service.BusinessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	rule, err := h.ruleService.CreateRule(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateRule updates an existing business rule
// @Summary      Update business rule
// @Description  Updates a rule and bumps its version so in-flight calculations conflict on commit
// @Tags         business-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Rule ID"
// @Param        payload  body      service.BusinessRuleRequest  true  "Update Rule Payload"
// @Success      200      {object}  response.Response{data=service.BusinessRuleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/business-rules/{id} [put]
func (h *BusinessRuleHandler) UpdateRule(c *gin.Context) {
	var req service.BusinessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// DeleteRule soft deletes a business rule
// @Summary      Delete business rule
// @Description  Soft deletes a business rule; recorded calculations keep referencing it
// @Tags         business-rules
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/business-rules/{id} [delete]
func (h *BusinessRuleHandler) DeleteRule(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.ruleService.DeleteRule(c.Request.Context(), c.Param("id"), userIDStr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Business rule deleted successfully"))
}
