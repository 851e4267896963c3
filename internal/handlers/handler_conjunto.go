package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// conjuntoHandler handles HTTP requests related to conjuntos.
type conjuntoHandler struct {
	conjuntoService portssvc.ConjuntoSvcFacade
}

func newConjuntoHandler(cs portssvc.ConjuntoSvcFacade) *conjuntoHandler {
	return &conjuntoHandler{conjuntoService: cs}
}

// registerConjuntoRoutes registers the conjunto registry routes and nests
// every conjunto-scoped resource (accounts, transactions, validation,
// reserve fund) under /conjuntos/:conjunto_id.
func registerConjuntoRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newConjuntoHandler(services.Conjunto)

	conjuntosTopLevel := rg.Group("/conjuntos")
	{
		conjuntosTopLevel.POST("", h.createConjunto)
		conjuntosTopLevel.GET("", h.listActiveConjuntos)
	}

	conjuntoSpecific := rg.Group("/conjuntos/:conjunto_id")
	{
		conjuntoSpecific.GET("", h.getConjunto)

		registerAccountRoutes(conjuntoSpecific, services.Account)
		registerTransactionRoutes(conjuntoSpecific, services.Ledger)
		registerValidationRoutes(conjuntoSpecific, services.Validation)
		registerReserveFundRoutes(conjuntoSpecific, services.ReserveFund)
	}
}

func (h *conjuntoHandler) createConjunto(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateConjuntoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateConjunto", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conjunto, err := h.conjuntoService.CreateConjunto(c.Request.Context(), req, actorID)
	if err != nil {
		logger.Error("Failed to create conjunto in service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conjunto"})
		return
	}

	logger.Info("Conjunto created successfully", slog.String("conjunto_id", conjunto.ConjuntoID))
	c.JSON(http.StatusCreated, dto.ToConjuntoResponse(conjunto))
}

func (h *conjuntoHandler) getConjunto(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	conjuntoID := c.Param("conjunto_id")

	conjunto, err := h.conjuntoService.GetConjunto(c.Request.Context(), conjuntoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conjunto not found"})
			return
		}
		logger.Error("Failed to get conjunto from service", slog.String("error", err.Error()), slog.String("conjunto_id", conjuntoID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conjunto"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConjuntoResponse(conjunto))
}

func (h *conjuntoHandler) listActiveConjuntos(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	conjuntos, err := h.conjuntoService.ListActiveConjuntos(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list conjuntos from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conjuntos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conjuntos": dto.ToConjuntoResponses(conjuntos)})
}
