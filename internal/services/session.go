package services

import (
	"context"
	"delivery-quote-service/internal/domain"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionState is the distance/price calculation state of a quote session.
type SessionState string

const (
	StateIdle     SessionState = "idle"
	StateLoading  SessionState = "loading"
	StateResolved SessionState = "resolved"
	StateFailed   SessionState = "failed"
)

// ErrSuperseded is returned by Calculate when the route was edited while the
// calculation was in flight. The result is discarded.
var ErrSuperseded = errors.New("route changed during calculation")

// RouteResolver is satisfied by RouteAggregator.
type RouteResolver interface {
	ResolveRoute(ctx context.Context, origin string, stops []string) (domain.DistanceResult, error)
}

// SessionSnapshot is a consistent copy of a session's state.
type SessionSnapshot struct {
	ID           string
	Origin       string
	Stops        []domain.RouteStop
	VehicleClass domain.VehicleClass
	Price        *float64
	Note         string
	State        SessionState
	Result       *domain.DistanceResult
	Reason       string
	Quote        *domain.PriceQuote
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QuoteSession is one in-progress delivery quote: the route being edited, the
// last calculation outcome and the price field. Any change to the origin or a
// stop address resets the calculation to idle and discards the held result.
type QuoteSession struct {
	id       string
	resolver RouteResolver
	log      logrus.FieldLogger
	now      func() time.Time

	suggestions *SuggestionSearch

	mu         sync.Mutex
	origin     string
	stops      *domain.StopList
	vehicle    domain.VehicleClass
	price      *float64
	note       string
	state      SessionState
	result     *domain.DistanceResult
	reason     string
	generation uint64
	createdAt  time.Time
	updatedAt  time.Time
}

func NewQuoteSession(resolver RouteResolver, suggestions *SuggestionSearch, log logrus.FieldLogger) *QuoteSession {
	id := uuid.NewString()
	now := time.Now().UTC()
	return &QuoteSession{
		id:          id,
		resolver:    resolver,
		log:         log.WithField("session", id),
		now:         func() time.Time { return time.Now().UTC() },
		suggestions: suggestions,
		stops:       domain.NewStopList(),
		vehicle:     domain.VehicleCar,
		state:       StateIdle,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (s *QuoteSession) ID() string { return s.id }

// Suggestions is nil when the session was built without a searcher.
func (s *QuoteSession) Suggestions() *SuggestionSearch { return s.suggestions }

// invalidate must be called with mu held.
func (s *QuoteSession) invalidate() {
	s.generation++
	s.state = StateIdle
	s.result = nil
	s.reason = ""
}

func (s *QuoteSession) touch() { s.updatedAt = s.now() }

// Calculate resolves the current route. It fails with ErrCalculationInProgress
// while another calculation is pending and with ErrInvalidInput, leaving the
// state untouched, when the origin or every stop address is blank.
func (s *QuoteSession) Calculate(ctx context.Context) (domain.DistanceResult, error) {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return domain.DistanceResult{}, domain.ErrCalculationInProgress
	}

	origin := strings.TrimSpace(s.origin)
	stops := s.stops.ValidAddresses()
	if origin == "" || len(stops) == 0 {
		s.mu.Unlock()
		return domain.DistanceResult{}, fmt.Errorf("calculate: origin and at least one stop are required: %w", domain.ErrInvalidInput)
	}

	s.state = StateLoading
	s.result = nil
	s.reason = ""
	gen := s.generation
	s.touch()
	s.mu.Unlock()

	res, err := s.resolver.ResolveRoute(ctx, origin, stops)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return domain.DistanceResult{}, ErrSuperseded
	}
	s.touch()

	if err != nil {
		if ctx.Err() != nil {
			s.state = StateIdle
			return domain.DistanceResult{}, fmt.Errorf("calculate: %w", err)
		}
		s.state = StateFailed
		s.reason = failureReason(err)
		s.log.WithError(err).Info("route calculation failed")
		return domain.DistanceResult{}, fmt.Errorf("calculate: %w", err)
	}

	s.state = StateResolved
	s.result = &res
	if s.price == nil {
		p := s.quoteLocked().SuggestedTotal
		s.price = &p
	}

	s.log.WithFields(logrus.Fields{
		"distance_km":    res.RoundedDistanceKm(),
		"duration_min":   res.RoundedDurationMin(),
		"estimated_legs": res.EstimatedLegs(),
	}).Info("route calculated")

	return res, nil
}

func failureReason(err error) string {
	var nf *domain.AddressNotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "could not calculate the route distance"
}

// quoteLocked must be called with mu held and a resolved result.
func (s *QuoteSession) quoteLocked() domain.PriceQuote {
	extra := domain.ExtraStops(len(s.stops.Valid()))
	return domain.Quote(s.result.RoundedDistanceKm(), s.vehicle, extra)
}

// Quote returns the price breakdown for the resolved route.
func (s *QuoteSession) Quote() (domain.PriceQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolved || s.result == nil {
		return domain.PriceQuote{}, domain.ErrNoResult
	}
	return s.quoteLocked(), nil
}

// ApplySuggestedPrice overwrites the price field with the suggested total.
func (s *QuoteSession) ApplySuggestedPrice() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolved || s.result == nil {
		return 0, domain.ErrNoResult
	}
	p := s.quoteLocked().SuggestedTotal
	s.price = &p
	s.touch()
	return p, nil
}

// ClearResult drops any result or failure and ignores an in-flight calculation.
func (s *QuoteSession) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
	s.touch()
}

func (s *QuoteSession) SetOrigin(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if origin == s.origin {
		return
	}
	s.origin = origin
	s.invalidate()
	s.touch()
}

func (s *QuoteSession) AddStop() domain.RouteStop {
	s.mu.Lock()
	defer s.mu.Unlock()

	stop := s.stops.Add()
	s.touch()
	return stop
}

// RemoveStop invalidates the result only when the removed stop had an address.
func (s *QuoteSession) RemoveStop(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var addr string
	for _, st := range s.stops.Stops() {
		if st.ID == id {
			addr = st.Address
		}
	}
	if err := s.stops.Remove(id); err != nil {
		return err
	}
	if strings.TrimSpace(addr) != "" {
		s.invalidate()
	}
	s.touch()
	return nil
}

func (s *QuoteSession) MoveStop(id string, dir domain.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved, err := s.stops.MoveByID(id, dir)
	if err != nil {
		return err
	}
	if moved {
		s.invalidate()
		s.touch()
	}
	return nil
}

// UpdateStop sets one stop field. Address edits invalidate the result.
func (s *QuoteSession) UpdateStop(id string, field domain.StopField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var before string
	for _, st := range s.stops.Stops() {
		if st.ID == id {
			before = st.Address
		}
	}
	if err := s.stops.Update(id, field, value); err != nil {
		return err
	}
	if field == domain.FieldAddress && value != before {
		s.invalidate()
	}
	s.touch()
	return nil
}

// SetVehicle changes the vehicle class; the suggested price follows it but the
// price field is left as is.
func (s *QuoteSession) SetVehicle(class domain.VehicleClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicle = class
	s.touch()
}

// SetPrice sets the price field by hand. nil clears it.
func (s *QuoteSession) SetPrice(price *float64) error {
	if price != nil && (*price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0)) {
		return fmt.Errorf("set price %v: %w", *price, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if price == nil {
		s.price = nil
	} else {
		p := *price
		s.price = &p
	}
	s.touch()
	return nil
}

func (s *QuoteSession) SetNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.note = note
	s.touch()
}

func (s *QuoteSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the held result, nil unless resolved.
func (s *QuoteSession) Result() *domain.DistanceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

func (s *QuoteSession) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *QuoteSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:           s.id,
		Origin:       s.origin,
		Stops:        s.stops.Stops(),
		VehicleClass: s.vehicle,
		Note:         s.note,
		State:        s.state,
		Reason:       s.reason,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if s.price != nil {
		p := *s.price
		snap.Price = &p
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
		q := s.quoteLocked()
		snap.Quote = &q
	}
	return snap
}

// Draft builds what gets copied into the delivery record. It needs an origin,
// at least one stop address and a price.
func (s *QuoteSession) Draft() (domain.DeliveryDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin := strings.TrimSpace(s.origin)
	valid := s.stops.Valid()
	if origin == "" || len(valid) == 0 {
		return domain.DeliveryDraft{}, fmt.Errorf("draft: origin and at least one stop are required: %w", domain.ErrInvalidInput)
	}
	if s.price == nil {
		return domain.DeliveryDraft{}, fmt.Errorf("draft: price is required: %w", domain.ErrInvalidInput)
	}

	draft := domain.DeliveryDraft{
		Origin:       origin,
		Destination:  domain.DestinationLabel(valid),
		Description:  domain.RouteSummary(valid, s.result, s.note),
		Value:        *s.price,
		VehicleClass: s.vehicle,
		Stops:        valid,
	}
	if s.result != nil {
		d := s.result.RoundedDistanceKm()
		m := s.result.RoundedDurationMin()
		draft.DistanceKm = &d
		draft.DurationMin = &m
	}
	return draft, nil
}

// Close stops pending suggestion lookups.
func (s *QuoteSession) Close() {
	if s.suggestions != nil {
		s.suggestions.Close()
	}
}
