package api

import (
	"delivery-quote-service/internal/api/handlers"
	"delivery-quote-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires HTTP handlers with their dependencies.
// Handlers stay unaware of concrete adapters.
func NewRouter(quotes *services.QuoteService, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), loggingMiddleware(log))

	sessions := &handlers.SessionHandler{Quotes: quotes, Log: log}
	estimate := &handlers.EstimateHandler{Quotes: quotes}

	r.GET("/health", handlers.Health)
	r.GET("/estimate", estimate.Estimate)

	s := r.Group("/sessions")
	{
		s.POST("", sessions.Create)
		s.GET("/:id", sessions.Get)
		s.DELETE("/:id", sessions.Delete)

		s.PUT("/:id/origin", sessions.SetOrigin)
		s.POST("/:id/stops", sessions.AddStop)
		s.PATCH("/:id/stops/:stopID", sessions.UpdateStop)
		s.DELETE("/:id/stops/:stopID", sessions.RemoveStop)
		s.POST("/:id/stops/:stopID/move", sessions.MoveStop)
		s.PUT("/:id/vehicle", sessions.SetVehicle)
		s.PUT("/:id/price", sessions.SetPrice)
		s.PUT("/:id/note", sessions.SetNote)

		s.POST("/:id/calculate", sessions.Calculate)
		s.POST("/:id/apply-price", sessions.ApplyPrice)
		s.DELETE("/:id/result", sessions.ClearResult)
		s.POST("/:id/accept", sessions.Accept)

		s.GET("/:id/suggestions", sessions.Suggestions)
		s.POST("/:id/suggestions", sessions.SearchSuggestions)
		s.DELETE("/:id/suggestions", sessions.ClearSuggestions)
		s.GET("/:id/suggestions/ws", sessions.SuggestionStream)
	}

	return r
}
