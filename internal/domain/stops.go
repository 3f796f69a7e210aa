package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RouteStop is one delivery stop. Order is a dense 1-based rank.
type RouteStop struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	Description    string `json:"description"`
	Order          int    `json:"order"`
}

// StopField names an editable RouteStop text field.
type StopField string

const (
	FieldAddress        StopField = "address"
	FieldRecipientName  StopField = "recipient_name"
	FieldRecipientPhone StopField = "recipient_phone"
	FieldDescription    StopField = "description"
)

// Direction for Move.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// StopList is the ordered stop sequence of a route. It always holds at least
// one stop and keeps Order dense and contiguous after every mutation.
type StopList struct {
	stops []RouteStop
}

func newStop(order int) RouteStop {
	return RouteStop{ID: uuid.NewString(), Order: order}
}

// NewStopList returns a list with a single empty stop.
func NewStopList() *StopList {
	return &StopList{stops: []RouteStop{newStop(1)}}
}

// Stops returns a copy of the stops in order.
func (l *StopList) Stops() []RouteStop {
	out := make([]RouteStop, len(l.stops))
	copy(out, l.stops)
	return out
}

func (l *StopList) Len() int { return len(l.stops) }

func (l *StopList) renumber() {
	for i := range l.stops {
		l.stops[i].Order = i + 1
	}
}

func (l *StopList) indexOf(id string) int {
	for i, s := range l.stops {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Add appends an empty stop and returns it.
func (l *StopList) Add() RouteStop {
	s := newStop(len(l.stops) + 1)
	l.stops = append(l.stops, s)
	return s
}

// Remove deletes the stop with the given id. The last remaining stop cannot be removed.
func (l *StopList) Remove(id string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove stop %q: %w", id, ErrStopNotFound)
	}
	if len(l.stops) <= 1 {
		return fmt.Errorf("remove stop %q: %w", id, ErrLastStop)
	}

	l.stops = append(l.stops[:idx], l.stops[idx+1:]...)
	l.renumber()
	return nil
}

// Move swaps the stop at index with its neighbour. Moving past either end is a no-op.
// It reports whether the order changed.
func (l *StopList) Move(index int, dir Direction) (bool, error) {
	if index < 0 || index >= len(l.stops) {
		return false, fmt.Errorf("move stop: index %d out of range: %w", index, ErrInvalidInput)
	}

	var target int
	switch dir {
	case Up:
		target = index - 1
	case Down:
		target = index + 1
	default:
		return false, fmt.Errorf("move stop: direction %q: %w", dir, ErrInvalidInput)
	}

	if target < 0 || target >= len(l.stops) {
		return false, nil
	}

	l.stops[index], l.stops[target] = l.stops[target], l.stops[index]
	l.renumber()
	return true, nil
}

// MoveByID is Move addressed by stop id.
func (l *StopList) MoveByID(id string, dir Direction) (bool, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return false, fmt.Errorf("move stop %q: %w", id, ErrStopNotFound)
	}
	return l.Move(idx, dir)
}

// Update sets one text field of a stop.
func (l *StopList) Update(id string, field StopField, value string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("update stop %q: %w", id, ErrStopNotFound)
	}

	s := &l.stops[idx]
	switch field {
	case FieldAddress:
		s.Address = value
	case FieldRecipientName:
		s.RecipientName = value
	case FieldRecipientPhone:
		s.RecipientPhone = value
	case FieldDescription:
		s.Description = value
	default:
		return fmt.Errorf("update stop %q: unknown field %q: %w", id, field, ErrInvalidInput)
	}
	return nil
}

// Valid returns the stops with a non-blank address, in order.
func (l *StopList) Valid() []RouteStop {
	out := make([]RouteStop, 0, len(l.stops))
	for _, s := range l.stops {
		if strings.TrimSpace(s.Address) != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidAddresses returns the non-blank stop addresses, in order.
func (l *StopList) ValidAddresses() []string {
	valid := l.Valid()
	out := make([]string, 0, len(valid))
	for _, s := range valid {
		out = append(out, strings.TrimSpace(s.Address))
	}
	return out
}
