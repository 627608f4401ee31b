package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/pagination"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type TariffHandler struct {
	tariffService service.TariffService
}

func NewTariffHandler(tariffService service.TariffService) *TariffHandler {
	return &TariffHandler{tariffService: tariffService}
}

func (h *TariffHandler) RegisterRoutes(router *gin.RouterGroup) {
	tariffs := router.Group("/api/tariffs")
	{
		tariffs.GET("", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListTariffs)
		tariffs.GET("/:id", middleware.RequireRole("admin", "billing_admin", "reception"), h.GetTariff)
		tariffs.POST("", middleware.RequireRole("admin", "billing_admin"), h.CreateTariff)
		tariffs.PUT("/:id", middleware.RequireRole("admin", "billing_admin"), h.UpdateTariff)
		tariffs.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteTariff)
	}
}

// ListTariffs returns a paginated list of tariffs, optionally filtered
// @Summary      List tariffs
// @Description  Retrieves a paginated list of tariffs, optionally filtered by insurer and service
// @Tags         tariffs
// @Security     BearerAuth
// @Produce      json
// @Param        insurer_id  query     string  false  "Filter by insurer ID"
// @Param        service_id  query     string  false  "Filter by service ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/tariffs [get]
func (h *TariffHandler) ListTariffs(c *gin.Context) {
	params := pagination.Parse(c)

	tariffs, total, err := h.tariffService.ListTariffs(c.Request.Context(),
		c.Query("insurer_id"), c.Query("service_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tariffs": tariffs,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetTariff returns one tariff by ID
// @Summary      Get tariff
// @Description  Fetch a single tariff by its UUID
// @Tags         tariffs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tariff ID"
// @Success      200  {object}  response.Response{data=service.TariffResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/tariffs/{id} [get]
func (h *TariffHandler) GetTariff(c *gin.Context) {
	tariff, err := h.tariffService.GetTariff(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tariff))
}

// CreateTariff creates a new tariff
// @Summary      Create tariff
// @Description  Creates a new tariff after validating share percentages and priority conflicts
// @Tags         tariffs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TariffRequest  true  "Create Tariff Payload"
// @Success      201      {object}  response.Response{data=service.TariffResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tariffs [post]
func (h *TariffHandler) CreateTariff(c *gin.Context) {
	var req service.TariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	tariff, err := h.tariffService.CreateTariff(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tariff))
}

// UpdateTariff updates an existing tariff
// @Summary      Update tariff
// @Description  Updates a tariff and bumps its version so in-flight calculations conflict on commit
// @Tags         tariffs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Tariff ID"
// @Param        payload  body      service.TariffRequest  true  "Update Tariff Payload"
// @Success      200      {object}  response.Response{data=service.TariffResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tariffs/{id} [put]
func (h *TariffHandler) UpdateTariff(c *gin.Context) {
	var req service.TariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	tariff, err := h.tariffService.UpdateTariff(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tariff))
}

// DeleteTariff soft deletes a tariff
// @Summary      Delete tariff
// @Description  Soft deletes a tariff; recorded calculations keep referencing it
// @Tags         tariffs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tariff ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tariffs/{id} [delete]
func (h *TariffHandler) DeleteTariff(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.tariffService.DeleteTariff(c.Request.Context(), c.Param("id"), userIDStr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tariff deleted successfully"))
}
