package services

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/ports"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	// Queries shorter than this never reach the provider.
	MinSuggestionQueryLen = 3
	SuggestionLimit       = 5
	DefaultSuggestDelay   = 500 * time.Millisecond
	// MaxSuggestionFields bounds how many fields one search tracks at once.
	MaxSuggestionFields = 32
)

// AllFields clears every field's suggestions.
const AllFields = "all"

// SuggestionNotify receives the suggestions applied for a field.
type SuggestionNotify func(field, query string, suggestions []domain.AddressSuggestion)

// SuggestionSearch keeps one debounced suggestion list per text field.
// Only the most recent query of a field is ever applied to that field.
type SuggestionSearch struct {
	searcher  ports.AddressSearcher
	debouncer *Debouncer
	timeout   time.Duration
	log       logrus.FieldLogger

	mu      sync.Mutex
	lists   map[string][]domain.AddressSuggestion
	loading map[string]bool
}

func NewSuggestionSearch(
	searcher ports.AddressSearcher,
	delay time.Duration,
	timeout time.Duration,
	log logrus.FieldLogger,
) *SuggestionSearch {
	if delay <= 0 {
		delay = DefaultSuggestDelay
	}
	return &SuggestionSearch{
		searcher:  searcher,
		debouncer: NewDebouncer(delay),
		timeout:   timeout,
		log:       log,
		lists:     make(map[string][]domain.AddressSuggestion),
		loading:   make(map[string]bool),
	}
}

// Search schedules a lookup for query in field. Short queries clear the field
// right away and cancel whatever was pending for it. notify may be nil.
// A new field is refused once MaxSuggestionFields are tracked.
func (s *SuggestionSearch) Search(field, query string, notify SuggestionNotify) error {
	if utf8.RuneCountInString(query) < MinSuggestionQueryLen {
		s.debouncer.Cancel(field)

		s.mu.Lock()
		delete(s.lists, field)
		delete(s.loading, field)
		s.mu.Unlock()

		if notify != nil {
			notify(field, query, nil)
		}
		return nil
	}

	s.mu.Lock()
	if !s.trackedLocked(field) && s.fieldCountLocked() >= MaxSuggestionFields {
		s.mu.Unlock()
		return fmt.Errorf("%w: more than %d suggestion fields", domain.ErrInvalidInput, MaxSuggestionFields)
	}
	s.loading[field] = true
	s.mu.Unlock()

	s.debouncer.Schedule(field, func(ctx context.Context, commit Commit) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		found, err := s.searcher.Search(ctx, query, SuggestionLimit)
		if err != nil {
			s.log.WithError(err).WithField("field", field).Debug("suggestion search failed")
			found = nil
		}

		applied := commit(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.lists[field] = found
			delete(s.loading, field)
		})
		if applied && notify != nil {
			notify(field, query, found)
		}
	})
	return nil
}

func (s *SuggestionSearch) trackedLocked(field string) bool {
	_, inList := s.lists[field]
	return inList || s.loading[field]
}

func (s *SuggestionSearch) fieldCountLocked() int {
	n := len(s.lists)
	for field := range s.loading {
		if _, ok := s.lists[field]; !ok {
			n++
		}
	}
	return n
}

// Suggestions returns the current list for field.
func (s *SuggestionSearch) Suggestions(field string) []domain.AddressSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[field]
	out := make([]domain.AddressSuggestion, len(list))
	copy(out, list)
	return out
}

// Loading reports whether a lookup for field is pending or in flight.
func (s *SuggestionSearch) Loading(field string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[field]
}

// Clear empties field, or every field for AllFields, and drops pending lookups.
func (s *SuggestionSearch) Clear(field string) {
	if field == AllFields {
		s.debouncer.Stop()
	} else {
		s.debouncer.Cancel(field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if field == AllFields {
		clear(s.lists)
		clear(s.loading)
		return
	}
	delete(s.lists, field)
	delete(s.loading, field)
}

func (s *SuggestionSearch) Close() {
	s.Clear(AllFields)
}
