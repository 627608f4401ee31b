package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/pagination"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	services := router.Group("/api/services")
	{
		services.GET("", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListServices)
		services.POST("", middleware.RequireRole("admin", "billing_admin"), h.CreateService)
		services.PUT("/:id", middleware.RequireRole("admin", "billing_admin"), h.UpdateService)
		services.PUT("/department-coefficients", middleware.RequireRole("admin", "billing_admin"), h.UpsertDepartmentOverride)
	}

	insurers := router.Group("/api/insurers")
	{
		insurers.GET("", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListInsurers)
	}
}

// ListServices returns the medical service catalog
// @Summary      List services
// @Description  Retrieves a paginated list of billable medical services ordered by code
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	params := pagination.Parse(c)

	services, total, err := h.catalogService.ListServices(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"services": services,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateService creates a new medical service
// @Summary      Create service
// @Description  Creates a billable medical service with either a flat price or a coefficient pair
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.MedicalServiceRequest  true  "Create Service Payload"
// @Success      201      {object}  response.Response{data=service.MedicalServiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/services [post]
func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req service.MedicalServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	svc, err := h.catalogService.CreateService(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, svc))
}

// UpdateService updates an existing medical service
// @Summary      Update service
// @Description  Updates a medical service keeping its pricing shape consistent
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Service ID"
// @Param        payload  body      service.MedicalServiceRequest  true  "Update Service Payload"
// @Success      200      {object}  response.Response{data=service.MedicalServiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/services/{id} [put]
func (h *CatalogHandler) UpdateService(c *gin.Context) {
	var req service.MedicalServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	svc, err := h.catalogService.UpdateService(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, svc))
}

// UpsertDepartmentOverride sets a department's coefficient pair for one service
// @Summary      Upsert department coefficients
// @Description  Creates or replaces the coefficient override a department applies to one coefficient-priced service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DepartmentOverrideRequest  true  "Override Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/services/department-coefficients [put]
func (h *CatalogHandler) UpsertDepartmentOverride(c *gin.Context) {
	var req service.DepartmentOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.catalogService.UpsertDepartmentOverride(c.Request.Context(), req, userIDStr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Department coefficients saved"))
}

// ListInsurers returns insurers the clinic has contracts with
// @Summary      List insurers
// @Description  Retrieves a paginated list of contracted insurers ordered by name
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/insurers [get]
func (h *CatalogHandler) ListInsurers(c *gin.Context) {
	params := pagination.Parse(c)

	insurers, total, err := h.catalogService.ListInsurers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"insurers": insurers,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}
