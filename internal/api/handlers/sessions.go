package handlers

import (
	"delivery-quote-service/internal/api/dto"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/services"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	Quotes *services.QuoteService
	Log    logrus.FieldLogger
}

func (h *SessionHandler) session(c *gin.Context) (*services.QuoteSession, bool) {
	s, err := h.Quotes.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) respond(c *gin.Context, status int, s *services.QuoteSession) {
	res, err := dto.NewSessionResponse(s.Snapshot())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(status, res)
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json body: "+err.Error())
		return false
	}
	return true
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	class, err := domain.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	s := h.Quotes.Create(services.SessionOptions{Origin: req.Origin, VehicleClass: class})
	h.respond(c, http.StatusCreated, s)
}

func (h *SessionHandler) Get(c *gin.Context) {
	if s, ok := h.session(c); ok {
		h.respond(c, http.StatusOK, s)
	}
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.Quotes.Delete(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) SetOrigin(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.OriginRequest
	if !bind(c, &req) {
		return
	}

	s.SetOrigin(req.Origin)
	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) AddStop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	stop := s.AddStop()
	c.JSON(http.StatusCreated, stop)
}

func (h *SessionHandler) UpdateStop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.StopPatchRequest
	if !bind(c, &req) {
		return
	}

	id := c.Param("stopID")
	updates := []struct {
		field domain.StopField
		value *string
	}{
		{domain.FieldAddress, req.Address},
		{domain.FieldRecipientName, req.RecipientName},
		{domain.FieldRecipientPhone, req.RecipientPhone},
		{domain.FieldDescription, req.Description},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := s.UpdateStop(id, u.field, *u.value); err != nil {
			writeDomainError(c, err)
			return
		}
	}

	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) RemoveStop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.RemoveStop(c.Param("stopID")); err != nil {
		writeDomainError(c, err)
		return
	}
	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) MoveStop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.MoveStopRequest
	if !bind(c, &req) {
		return
	}

	if err := s.MoveStop(c.Param("stopID"), domain.Direction(req.Direction)); err != nil {
		writeDomainError(c, err)
		return
	}
	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) SetVehicle(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.VehicleRequest
	if !bind(c, &req) {
		return
	}

	class, err := domain.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	s.SetVehicle(class)
	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) SetPrice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.PriceRequest
	if !bind(c, &req) {
		return
	}

	if err := s.SetPrice(req.Price); err != nil {
		writeDomainError(c, err)
		return
	}
	h.respond(c, http.StatusOK, s)
}

func (h *SessionHandler) SetNote(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.NoteRequest
	if !bind(c, &req) {
		return
	}

	s.SetNote(req.Note)
	h.respond(c, http.StatusOK, s)
}

// Calculate resolves the route. A failed calculation answers 422 with the
// session so the client can show the reason.
func (h *SessionHandler) Calculate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	_, err := s.Calculate(c.Request.Context())
	if err == nil {
		h.respond(c, http.StatusOK, s)
		return
	}

	status := statusFor(err)
	if status != http.StatusUnprocessableEntity {
		writeDomainError(c, err)
		return
	}

	res, rerr := dto.NewSessionResponse(s.Snapshot())
	if rerr != nil {
		writeDomainError(c, errors.Join(err, rerr))
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: res.Reason, Session: &res})
}

func (h *SessionHandler) ApplyPrice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	price, err := s.ApplySuggestedPrice()
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ApplyPriceResponse{Price: price})
}

func (h *SessionHandler) ClearResult(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	s.ClearResult()
	h.respond(c, http.StatusOK, s)
}

// Accept publishes the delivery draft and ends the session.
func (h *SessionHandler) Accept(c *gin.Context) {
	draft, err := h.Quotes.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.Log.WithError(err).Error("accept quote")
			writeError(c, http.StatusBadGateway, "could not publish the accepted quote")
			return
		}
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
