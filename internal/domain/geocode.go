package domain

import "strings"

// GeocodeResult is the provider's resolution of exactly one address string.
type GeocodeResult struct {
	Coordinates Coordinates `json:"coordinates"`
	DisplayName string      `json:"display_name"`
}

// AddressSuggestion is one autocomplete candidate, in provider relevance order.
type AddressSuggestion struct {
	ID          int64       `json:"id"`
	DisplayName string      `json:"display_name"`
	Coordinates Coordinates `json:"coordinates"`
}

func splitSegments(displayName string) []string {
	parts := strings.Split(displayName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func joinSegments(parts []string, from, to int) string {
	if from >= len(parts) {
		return ""
	}
	if to > len(parts) {
		to = len(parts)
	}
	return strings.Join(parts[from:to], ", ")
}

// SimplifyLabel keeps the first three comma-separated segments of a provider
// display name. It is the label stored when a suggestion is selected.
func SimplifyLabel(displayName string) string {
	return joinSegments(splitSegments(displayName), 0, 3)
}

// SplitSuggestion splits a display name into a main line (segments 1-2)
// and a secondary line (segments 3-4).
func SplitSuggestion(displayName string) (main, secondary string) {
	parts := splitSegments(displayName)
	return joinSegments(parts, 0, 2), joinSegments(parts, 2, 4)
}

// FirstSegment returns the text before the first comma.
func FirstSegment(address string) string {
	head, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(head)
}
