package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("address not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrRouteFailed           = errors.New("route calculation failed")
	ErrCalculationInProgress = errors.New("calculation already in progress")
	ErrNoResult              = errors.New("no resolved route")
	ErrStopNotFound          = errors.New("stop not found")
	ErrLastStop              = errors.New("a route requires at least one stop")
	ErrSessionNotFound       = errors.New("quote session not found")
)

// Role identifies which end of a leg an address belongs to.
type Role string

const (
	RoleOrigin      Role = "origin"
	RoleDestination Role = "destination"
)

// AddressNotFoundError reports a geocoding miss for a specific address in a route.
// Position is the 1-based stop number for destinations and 0 for the origin.
type AddressNotFoundError struct {
	Role     Role
	Position int
	Address  string
	Err      error
}

func (e *AddressNotFoundError) Error() string {
	if e.Role == RoleOrigin {
		return fmt.Sprintf("could not locate the origin address %q", e.Address)
	}
	return fmt.Sprintf("could not locate the destination address for stop %d %q", e.Position, e.Address)
}

func (e *AddressNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}
