package handlers

import (
	"delivery-quote-service/internal/api/dto"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type EstimateHandler struct {
	Quotes *services.QuoteService
}

// Estimate prices a distance without a session.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var q dto.EstimateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	class, err := domain.ParseVehicleClass(q.Vehicle)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Quotes.Estimate(q.DistanceKm, class, q.ExtraStops))
}
