package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// validationHandler exposes the stateless transaction rule engine. Rule
// violations come back inside the result body with a 200, never as error
// statuses.
type validationHandler struct {
	validationService portssvc.ValidationSvcFacade
}

func newValidationHandler(vs portssvc.ValidationSvcFacade) *validationHandler {
	return &validationHandler{validationService: vs}
}

// registerValidationRoutes registers validation routes under a specific
// conjunto group.
func registerValidationRoutes(rg *gin.RouterGroup, validationService portssvc.ValidationSvcFacade) {
	h := newValidationHandler(validationService)

	validation := rg.Group("/validation")
	{
		validation.GET("/transactions/:transaction_id", h.validateTransaction)
		validation.POST("/transactions", h.validateBatch)
		validation.GET("/period", h.validatePeriod)
	}
}

func (h *validationHandler) validateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")
	transactionID := c.Param("transaction_id")

	result, err := h.validationService.ValidateTransactionIntegrity(c.Request.Context(), conjuntoID, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to validate transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate transaction"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *validationHandler) validateBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	var req dto.BatchValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ValidateBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.validationService.ValidateTransactionsBatch(c.Request.Context(), conjuntoID, req.TransactionIDs)
	if err != nil {
		logger.Error("Failed to validate transaction batch",
			slog.String("error", err.Error()),
			slog.String("conjunto_id", conjuntoID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate transactions"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *validationHandler) validatePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	month, year, err := periodQueryParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, svcErr := h.validationService.ValidatePeriodIntegrity(c.Request.Context(), conjuntoID, month, year)
	if svcErr != nil {
		if errors.Is(svcErr, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": svcErr.Error()})
			return
		}
		logger.Error("Failed to validate period",
			slog.String("error", svcErr.Error()),
			slog.String("conjunto_id", conjuntoID),
			slog.Int("month", month),
			slog.Int("year", year))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate period"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// periodQueryParams parses the required month/year query parameters.
func periodQueryParams(c *gin.Context) (month, year int, err error) {
	month, err = strconv.Atoi(c.Query("month"))
	if err != nil {
		return 0, 0, errors.New("month query parameter must be an integer")
	}
	year, err = strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, errors.New("year query parameter must be an integer")
	}
	return month, year, nil
}
