// Package fake holds in-memory implementations of the ports for tests.
package fake

import (
	"context"
	"delivery-quote-service/internal/domain"
	"fmt"
	"sync"
	"time"
)

// Geocoder resolves addresses from a fixed table. Unknown addresses are NotFound.
type Geocoder struct {
	mu      sync.Mutex
	results map[string]domain.GeocodeResult
	calls   []string
	Delay   time.Duration
}

func NewGeocoder(results map[string]domain.GeocodeResult) *Geocoder {
	return &Geocoder{results: results}
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	r, ok := g.results[address]
	delay := g.Delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return domain.GeocodeResult{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	if !ok {
		return domain.GeocodeResult{}, fmt.Errorf("fake geocode %q: %w", address, domain.ErrNotFound)
	}
	return r, nil
}

func (g *Geocoder) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

type MockPair struct {
	From, To domain.Coordinates
	Meters   float64
	Seconds  float64
}

// RouteProvider answers from fixed pairs; missing pairs fail like an unreachable service.
type RouteProvider struct {
	mu    sync.Mutex
	m     map[[2]domain.Coordinates]domain.RouteLeg
	calls int
}

func NewRouteProvider(pairs []MockPair) *RouteProvider {
	m := make(map[[2]domain.Coordinates]domain.RouteLeg, len(pairs))
	for _, p := range pairs {
		m[[2]domain.Coordinates{p.From, p.To}] = domain.RouteLeg{
			DistanceKm:  p.Meters / 1000,
			DurationMin: p.Seconds / 60,
		}
	}
	return &RouteProvider{m: m}
}

func (p *RouteProvider) Route(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	leg, ok := p.m[[2]domain.Coordinates{origin, destination}]
	if !ok {
		return domain.RouteLeg{}, fmt.Errorf("missing pair %v -> %v: %w", origin, destination, domain.ErrProviderUnavailable)
	}
	return leg, nil
}

func (p *RouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Searcher records every query and returns canned suggestions.
type Searcher struct {
	mu      sync.Mutex
	queries []string
	Results map[string][]domain.AddressSuggestion
	Err     error
	Delay   time.Duration
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.AddressSuggestion, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	res := s.Results[query]
	err := s.Err
	delay := s.Delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *Searcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// Publisher collects published drafts.
type Publisher struct {
	mu     sync.Mutex
	Drafts []domain.DeliveryDraft
	Err    error
}

func (p *Publisher) PublishAccepted(ctx context.Context, draft domain.DeliveryDraft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Drafts = append(p.Drafts, draft)
	return nil
}

func (p *Publisher) Published() []domain.DeliveryDraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.DeliveryDraft, len(p.Drafts))
	copy(out, p.Drafts)
	return out
}
