package dto

import (
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/services"
	"encoding/json"
	"time"
)

type CreateSessionRequest struct {
	Origin       string `json:"origin"`
	VehicleClass string `json:"vehicle_class"`
}

type OriginRequest struct {
	Origin string `json:"origin"`
}

// StopPatchRequest updates only the fields that are present.
type StopPatchRequest struct {
	Address        *string `json:"address"`
	RecipientName  *string `json:"recipient_name"`
	RecipientPhone *string `json:"recipient_phone"`
	Description    *string `json:"description"`
}

type MoveStopRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

type VehicleRequest struct {
	VehicleClass string `json:"vehicle_class" binding:"required"`
}

// PriceRequest sets the price field; a null price clears it.
type PriceRequest struct {
	Price *float64 `json:"price"`
}

type NoteRequest struct {
	Note string `json:"note"`
}

type RouteResultResponse struct {
	DistanceKm    float64            `json:"distance_km"`
	DurationMin   int                `json:"duration_min"`
	DurationText  string             `json:"duration_text"`
	Origin        domain.Coordinates `json:"origin"`
	Destination   domain.Coordinates `json:"destination"`
	EstimatedLegs int                `json:"estimated_legs"`
	Legs          []domain.RouteLeg  `json:"legs"`
	Geometry      json.RawMessage    `json:"geometry,omitempty"`
}

type SessionResponse struct {
	ID           string                `json:"id"`
	Origin       string                `json:"origin"`
	Stops        []domain.RouteStop    `json:"stops"`
	VehicleClass domain.VehicleClass   `json:"vehicle_class"`
	Price        *float64              `json:"price"`
	Note         string                `json:"note,omitempty"`
	State        services.SessionState `json:"state"`
	Reason       string                `json:"reason,omitempty"`
	Result       *RouteResultResponse  `json:"result,omitempty"`
	Quote        *domain.PriceQuote    `json:"quote,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string           `json:"error"`
	Session *SessionResponse `json:"session,omitempty"`
}

type ApplyPriceResponse struct {
	Price float64 `json:"price"`
}

func NewRouteResult(r domain.DistanceResult) (*RouteResultResponse, error) {
	geometry, err := RouteGeometry(r.Waypoints)
	if err != nil {
		return nil, err
	}

	minutes := r.RoundedDurationMin()
	return &RouteResultResponse{
		DistanceKm:    r.RoundedDistanceKm(),
		DurationMin:   minutes,
		DurationText:  domain.FormatDuration(minutes),
		Origin:        r.Origin,
		Destination:   r.Destination,
		EstimatedLegs: r.EstimatedLegs(),
		Legs:          r.Legs,
		Geometry:      geometry,
	}, nil
}

func NewSessionResponse(s services.SessionSnapshot) (SessionResponse, error) {
	res := SessionResponse{
		ID:           s.ID,
		Origin:       s.Origin,
		Stops:        s.Stops,
		VehicleClass: s.VehicleClass,
		Price:        s.Price,
		Note:         s.Note,
		State:        s.State,
		Reason:       s.Reason,
		Quote:        s.Quote,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}

	if s.Result != nil {
		r, err := NewRouteResult(*s.Result)
		if err != nil {
			return SessionResponse{}, err
		}
		res.Result = r
	}
	return res, nil
}
