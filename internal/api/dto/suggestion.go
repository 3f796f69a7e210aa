package dto

import "delivery-quote-service/internal/domain"

// SuggestionQuery is sent by WebSocket clients and POST /suggestions.
type SuggestionQuery struct {
	Field string `json:"field" binding:"required"`
	Query string `json:"query"`
}

type SuggestionResponse struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Label       string  `json:"label"`
	Main        string  `json:"main"`
	Secondary   string  `json:"secondary,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type SuggestionsResponse struct {
	Field       string               `json:"field"`
	Query       string               `json:"query,omitempty"`
	Loading     bool                 `json:"loading"`
	Suggestions []SuggestionResponse `json:"suggestions"`
}

func NewSuggestions(list []domain.AddressSuggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(list))
	for _, s := range list {
		main, secondary := domain.SplitSuggestion(s.DisplayName)
		out = append(out, SuggestionResponse{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			Label:       domain.SimplifyLabel(s.DisplayName),
			Main:        main,
			Secondary:   secondary,
			Lat:         s.Coordinates.Lat,
			Lon:         s.Coordinates.Lon,
		})
	}
	return out
}
