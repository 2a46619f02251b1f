// Package session holds the in-memory record store for a single
// annotation run. The store is append-only, owned by its caller, and
// not safe for concurrent use; wrap with external locking if shared.
package session

import (
	"time"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/quality"
)

// Store accumulates annotations, quality results, and comparisons in
// insertion order. Records live for the process lifetime unless
// exported; there are no update or delete operations.
type Store struct {
	registry *quality.Registry

	annotations []annotation.Annotation
	results     []quality.Result
	comparisons []annotation.Comparison

	now  func() time.Time
	last time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, used by tests to make timestamps
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRegistry replaces the default criterion registry.
func WithRegistry(r *quality.Registry) Option {
	return func(s *Store) { s.registry = r }
}

// New returns an empty store backed by the default criterion registry
// and the system clock.
func New(opts ...Option) *Store {
	s := &Store{
		registry: quality.DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the criterion registry so callers can register
// custom criteria before checking.
func (s *Store) Registry() *quality.Registry {
	return s.registry
}

// Timestamp returns the current store time, clamped so that timestamps
// never decrease within a run.
func (s *Store) Timestamp() time.Time {
	t := s.now()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// Annotate validates and appends a new annotation. Duplicate ids are
// permitted; they are the input of Inconsistencies.
func (s *Store) Annotate(id, category string, confidence int, notes string) (annotation.Annotation, error) {
	a, err := annotation.New(id, category, confidence, notes, s.Timestamp())
	if err != nil {
		return annotation.Annotation{}, err
	}
	s.annotations = append(s.annotations, a)
	return a, nil
}

// QualityCheck evaluates an entry against the named criteria and
// appends the result.
func (s *Store) QualityCheck(entry annotation.Annotation, criteria []string) (quality.Result, error) {
	res, err := s.registry.Check(entry, criteria, s.Timestamp())
	if err != nil {
		return quality.Result{}, err
	}
	s.results = append(s.results, res)
	return res, nil
}

// Compare records a caller-supplied pairwise decision and appends it.
func (s *Store) Compare(itemA, itemB, criterion string, winner annotation.Winner) (annotation.Comparison, error) {
	c, err := annotation.NewComparison(itemA, itemB, criterion, winner, s.Timestamp())
	if err != nil {
		return annotation.Comparison{}, err
	}
	s.comparisons = append(s.comparisons, c)
	return c, nil
}

// Inconsistencies scans the stored annotations for ids annotated with
// conflicting categories. Pure read; the store is not mutated.
func (s *Store) Inconsistencies() []annotation.Inconsistency {
	return annotation.FindInconsistencies(s.annotations)
}

// Annotations returns a copy of the stored annotations in insertion order.
func (s *Store) Annotations() []annotation.Annotation {
	out := make([]annotation.Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// QualityResults returns a copy of the stored quality results in
// insertion order.
func (s *Store) QualityResults() []quality.Result {
	out := make([]quality.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Comparisons returns a copy of the stored comparisons in insertion order.
func (s *Store) Comparisons() []annotation.Comparison {
	out := make([]annotation.Comparison, len(s.comparisons))
	copy(out, s.comparisons)
	return out
}
