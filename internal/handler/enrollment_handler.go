package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/pagination"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

func (h *EnrollmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	enrollments := router.Group("/api/enrollments")
	{
		enrollments.GET("/patient/:patientId", middleware.RequireRole("admin", "billing_admin", "reception"), h.ListByPatient)
		enrollments.POST("", middleware.RequireRole("admin", "billing_admin", "reception"), h.CreateEnrollment)
		enrollments.PUT("/:id", middleware.RequireRole("admin", "billing_admin", "reception"), h.UpdateEnrollment)
		enrollments.DELETE("/:id", middleware.RequireRole("admin", "billing_admin"), h.DeleteEnrollment)
	}
}

// ListByPatient returns a patient's insurance enrollments
// @Summary      List patient enrollments
// @Description  Retrieves a paginated list of one patient's insurance enrollments ordered by payer priority
// @Tags         enrollments
// @Security     BearerAuth
// @Produce      json
// @Param        patientId  path      string  true   "Patient ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Router       /api/enrollments/patient/{patientId} [get]
func (h *EnrollmentHandler) ListByPatient(c *gin.Context) {
	params := pagination.Parse(c)

	enrollments, total, err := h.enrollmentService.ListByPatient(c.Request.Context(),
		c.Param("patientId"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"enrollments": enrollments,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// CreateEnrollment enrolls a patient with an insurer
// @Summary      Create enrollment
// @Description  Enrolls a patient with an insurer and plan at a payer priority, rejecting overlapping duplicates
// @Tags         enrollments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EnrollmentRequest  true  "Create Enrollment Payload"
// @Success      201      {object}  response.Response{data=service.EnrollmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/enrollments [post]
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	enrollment, err := h.enrollmentService.CreateEnrollment(c.Request.Context(), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, enrollment))
}

// UpdateEnrollment updates an existing enrollment
// @Summary      Update enrollment
// @Description  Updates an enrollment's plan, priority, or coverage window
// @Tags         enrollments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Enrollment ID"
// @Param        payload  body      service.EnrollmentRequest  true  "Update Enrollment Payload"
// @Success      200      {object}  response.Response{data=service.EnrollmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/enrollments/{id} [put]
func (h *EnrollmentHandler) UpdateEnrollment(c *gin.Context) {
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	enrollment, err := h.enrollmentService.UpdateEnrollment(c.Request.Context(), c.Param("id"), req, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enrollment))
}

// DeleteEnrollment soft deletes an enrollment
// @Summary      Delete enrollment
// @Description  Soft deletes an enrollment; recorded calculations are unaffected
// @Tags         enrollments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Enrollment ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/enrollments/{id} [delete]
func (h *EnrollmentHandler) DeleteEnrollment(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.enrollmentService.DeleteEnrollment(c.Request.Context(), c.Param("id"), userIDStr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Enrollment deleted successfully"))
}
