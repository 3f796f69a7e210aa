package services

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/ports"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionStore keeps quote sessions in memory and evicts idle ones.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*QuoteSession
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*QuoteSession),
	}
}

func (st *SessionStore) Put(s *QuoteSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = s
}

func (st *SessionStore) Get(id string) (*QuoteSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes and closes the session. It reports whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Evict drops sessions not updated within the TTL and returns how many.
func (st *SessionStore) Evict() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var stale []*QuoteSession
	for id, s := range st.sessions {
		if s.UpdatedAt().Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Run evicts stale sessions every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration, log logrus.FieldLogger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Evict(); n > 0 {
				log.WithField("evicted", n).Debug("evicted idle quote sessions")
			}
		}
	}
}

// SessionOptions seed a new session.
type SessionOptions struct {
	Origin       string
	VehicleClass domain.VehicleClass
}

// QuoteService owns the sessions and their collaborators.
type QuoteService struct {
	store     *SessionStore
	resolver  RouteResolver
	searcher  ports.AddressSearcher
	publisher ports.QuotePublisher

	suggestDelay   time.Duration
	suggestTimeout time.Duration

	log logrus.FieldLogger
}

type QuoteServiceConfig struct {
	SuggestDelay   time.Duration
	SuggestTimeout time.Duration
}

func NewQuoteService(
	store *SessionStore,
	resolver RouteResolver,
	searcher ports.AddressSearcher,
	publisher ports.QuotePublisher,
	cfg QuoteServiceConfig,
	log logrus.FieldLogger,
) *QuoteService {
	return &QuoteService{
		store:          store,
		resolver:       resolver,
		searcher:       searcher,
		publisher:      publisher,
		suggestDelay:   cfg.SuggestDelay,
		suggestTimeout: cfg.SuggestTimeout,
		log:            log,
	}
}

func (q *QuoteService) Create(opts SessionOptions) *QuoteSession {
	var suggestions *SuggestionSearch
	if q.searcher != nil {
		suggestions = NewSuggestionSearch(q.searcher, q.suggestDelay, q.suggestTimeout, q.log)
	}

	s := NewQuoteSession(q.resolver, suggestions, q.log)
	if opts.Origin != "" {
		s.SetOrigin(opts.Origin)
	}
	if opts.VehicleClass != "" {
		s.SetVehicle(opts.VehicleClass)
	}

	q.store.Put(s)
	return s
}

func (q *QuoteService) Get(id string) (*QuoteSession, error) {
	s, ok := q.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

func (q *QuoteService) Delete(id string) error {
	if !q.store.Delete(id) {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return nil
}

// Accept publishes the session's delivery draft and ends the session.
// On publish failure the session is kept so the caller can retry.
func (q *QuoteService) Accept(ctx context.Context, id string) (domain.DeliveryDraft, error) {
	s, err := q.Get(id)
	if err != nil {
		return domain.DeliveryDraft{}, err
	}

	draft, err := s.Draft()
	if err != nil {
		return domain.DeliveryDraft{}, err
	}

	if q.publisher != nil {
		if err := q.publisher.PublishAccepted(ctx, draft); err != nil {
			return domain.DeliveryDraft{}, fmt.Errorf("accept session %q: %w", id, err)
		}
	}

	q.store.Delete(id)
	q.log.WithFields(logrus.Fields{
		"session": id,
		"value":   draft.Value,
		"stops":   len(draft.Stops),
	}).Info("quote accepted")

	return draft, nil
}

// Estimate is the stateless price calculation.
func (q *QuoteService) Estimate(distanceKm float64, class domain.VehicleClass, extraStops int) domain.PriceQuote {
	return domain.Quote(distanceKm, class, extraStops)
}
