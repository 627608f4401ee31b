package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/adjudication"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/middleware"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/service"
	"github.com/jiroftsoft/ClinicApp-sub008/pkg/response"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	billing := router.Group("/api/billing")
	billing.Use(middleware.RequireRole("admin", "billing_admin", "reception"))
	{
		billing.POST("/adjudicate", h.Adjudicate)
		billing.POST("/quote", h.Quote)
		billing.GET("/calculations/:receptionItemId", h.GetCalculations)
		billing.GET("/calculations/:receptionItemId/current", h.GetCurrentCalculation)
	}
}

// Adjudicate computes the payer allocation for a reception item and records it
// @Summary      Adjudicate a reception item
// @Description  Allocates the service amount across the patient's insurers and records the calculation
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjudicateRequest  true  "Adjudication Payload"
// @Success      201      {object}  response.Response{data=service.CalculationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/billing/adjudicate [post]
func (h *BillingHandler) Adjudicate(c *gin.Context) {
	var req service.AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	calc, err := h.billingService.Adjudicate(c.Request.Context(), req, userIDStr)
	if err != nil {
		writeAdjudicationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, calc))
}

// Quote runs the adjudication computation without persisting it
// @Summary      Quote a reception item
// @Description  Computes the allocation a reception item would receive without recording anything
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjudicateRequest  true  "Quote Payload"
// @Success      200      {object}  response.Response{data=service.CalculationResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/billing/quote [post]
func (h *BillingHandler) Quote(c *gin.Context) {
	var req service.AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	calc, err := h.billingService.Quote(c.Request.Context(), req)
	if err != nil {
		writeAdjudicationError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, calc))
}

// GetCalculations returns the calculation history for one reception item
// @Summary      Calculation history
// @Description  Returns every calculation recorded for a reception item, newest first, superseded rows included
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        receptionItemId  path      string  true  "Reception Item ID"
// @Success      200              {object}  response.Response{data=[]service.CalculationResponse}
// @Failure      400              {object}  response.Response
// @Router       /api/billing/calculations/{receptionItemId} [get]
func (h *BillingHandler) GetCalculations(c *gin.Context) {
	calcs, err := h.billingService.History(c.Request.Context(), c.Param("receptionItemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, calcs))
}

// GetCurrentCalculation returns the valid calculation for one reception item
// @Summary      Current calculation
// @Description  Returns the single valid (non superseded) calculation recorded for a reception item
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        receptionItemId  path      string  true  "Reception Item ID"
// @Success      200              {object}  response.Response{data=service.CalculationResponse}
// @Failure      404              {object}  response.Response
// @Router       /api/billing/calculations/{receptionItemId}/current [get]
func (h *BillingHandler) GetCurrentCalculation(c *gin.Context) {
	calc, err := h.billingService.Current(c.Request.Context(), c.Param("receptionItemId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, calc))
}

// writeAdjudicationError maps typed adjudication failures to HTTP statuses and
// stable error codes. Concurrency conflicts get 409 so clients know to re-run;
// configuration problems get 422 because the payload itself was well formed.
func writeAdjudicationError(c *gin.Context, err error) {
	var rejected *adjudication.RuleRejectedError
	switch {
	case errors.Is(err, adjudication.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, response.ErrorWithCode(http.StatusConflict, "CONCURRENCY_CONFLICT", err.Error()))
	case errors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "RULE_REJECTED", rejected.Error()))
	case errors.Is(err, adjudication.ErrNoApplicableTariff):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "NO_APPLICABLE_TARIFF", err.Error()))
	case errors.Is(err, adjudication.ErrAmbiguousTariff):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "AMBIGUOUS_TARIFF", err.Error()))
	case errors.Is(err, adjudication.ErrFactorNotFrozen):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "FACTOR_NOT_FROZEN", err.Error()))
	case errors.Is(err, adjudication.ErrAmbiguousFactor):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "AMBIGUOUS_FACTOR", err.Error()))
	case errors.Is(err, adjudication.ErrInvalidCoverageConfiguration):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "INVALID_COVERAGE_CONFIGURATION", err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
