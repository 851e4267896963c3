package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reserveFundHandler handles HTTP requests for the reserve fund engine.
type reserveFundHandler struct {
	reserveService portssvc.ReserveFundSvcFacade
}

func newReserveFundHandler(rs portssvc.ReserveFundSvcFacade) *reserveFundHandler {
	return &reserveFundHandler{reserveService: rs}
}

// registerReserveFundRoutes registers reserve fund routes under a specific
// conjunto group.
func registerReserveFundRoutes(rg *gin.RouterGroup, reserveService portssvc.ReserveFundSvcFacade) {
	h := newReserveFundHandler(reserveService)

	reserve := rg.Group("/reserve-fund")
	{
		reserve.GET("/calculate", h.calculateMonthlyReserve)
		reserve.POST("/appropriations", h.executeAppropriation)
		reserve.GET("/balance", h.getBalance)
		reserve.GET("/compliance", h.getCompliance)
	}
}

func (h *reserveFundHandler) calculateMonthlyReserve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	month, year, err := periodQueryParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, svcErr := h.reserveService.CalculateMonthlyReserve(c.Request.Context(), conjuntoID, month, year)
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": svcErr.Error()})
		case errors.Is(svcErr, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Conjunto not found"})
		default:
			logger.Error("Failed to calculate monthly reserve",
				slog.String("error", svcErr.Error()),
				slog.String("conjunto_id", conjuntoID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate monthly reserve"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conjuntoID": conjuntoID,
		"month":      month,
		"year":       year,
		"amount":     amount,
	})
}

func (h *reserveFundHandler) executeAppropriation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	var req dto.ExecuteAppropriationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ExecuteAppropriation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	month, year := req.Month, req.Year
	if month == 0 || year == 0 {
		month, year = previousMonth(time.Now().UTC())
	}

	result, err := h.reserveService.ExecuteMonthlyAppropriation(c.Request.Context(), conjuntoID, month, year, portssvc.AppropriationOptions{
		Force:   req.Force,
		DryRun:  req.DryRun,
		ActorID: actorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Conjunto not found"})
		case errors.Is(err, apperrors.ErrConfiguration):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to execute appropriation",
				slog.String("error", err.Error()),
				slog.String("conjunto_id", conjuntoID),
				slog.Int("month", month),
				slog.Int("year", year))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute appropriation"})
		}
		return
	}

	logger.Info("Appropriation run finished",
		slog.String("conjunto_id", conjuntoID),
		slog.Int("month", month),
		slog.Int("year", year),
		slog.String("outcome", result.Outcome))

	status := http.StatusOK
	if result.Outcome == dto.AppropriationCreated {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *reserveFundHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	balance, err := h.reserveService.GetReserveFundBalance(c.Request.Context(), conjuntoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conjunto not found"})
			return
		}
		logger.Error("Failed to get reserve fund balance",
			slog.String("error", err.Error()),
			slog.String("conjunto_id", conjuntoID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reserve fund balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ReserveBalanceResponse{ConjuntoID: conjuntoID, Balance: balance})
}

func (h *reserveFundHandler) getCompliance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year query parameter must be an integer"})
		return
	}

	report, svcErr := h.reserveService.ValidateLegalCompliance(c.Request.Context(), conjuntoID, year)
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": svcErr.Error()})
		case errors.Is(svcErr, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Conjunto not found"})
		default:
			logger.Error("Failed to build compliance report",
				slog.String("error", svcErr.Error()),
				slog.String("conjunto_id", conjuntoID),
				slog.Int("year", year))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build compliance report"})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// previousMonth returns the calendar month before the one containing t.
func previousMonth(t time.Time) (month, year int) {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := firstOfMonth.AddDate(0, 0, -1)
	return int(prev.Month()), prev.Year()
}
