// Package quality scores annotations against a set of named pass/fail
// criteria. The built-in criteria cover the demo heuristics
// (completeness, format, consistency); callers may register their own.
package quality

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
)

var (
	// ErrNoCriteria is returned when a check is requested with an
	// empty criteria list.
	ErrNoCriteria = errors.New("no criteria given")

	// ErrUnknownCriterion is returned when a requested criterion is
	// not registered.
	ErrUnknownCriterion = errors.New("unknown criterion")

	// ErrEmptyName is returned when registering a criterion without a name.
	ErrEmptyName = errors.New("criterion name must not be empty")
)

// Criterion judges a single annotation, returning pass/fail and a short
// human-readable detail.
type Criterion func(annotation.Annotation) (passed bool, detail string)

// CheckResult is the outcome of one criterion applied to one entry.
type CheckResult struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Detail    string `json:"detail"`
}

// Result is an immutable quality assessment of a single entry: one
// CheckResult per requested criterion, in request order, and an
// aggregate score on a 0-100 scale rounded to two decimal places.
type Result struct {
	RID       uuid.UUID             `json:"rid"`
	Entry     annotation.Annotation `json:"entry"`
	Checks    []CheckResult         `json:"checks"`
	Score     float64               `json:"score"`
	CreatedAt time.Time             `json:"created_at"`
}

// Passes counts the passing checks.
func (r Result) Passes() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// Registry holds named criteria. The zero value is not usable; use
// NewRegistry or DefaultRegistry.
type Registry struct {
	criteria map[string]Criterion
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{criteria: make(map[string]Criterion)}
}

// DefaultRegistry returns a registry preloaded with the built-in
// criteria: completeness, format, and consistency.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.criteria["completeness"] = Completeness
	r.criteria["format"] = Format
	r.criteria["consistency"] = Consistency
	return r
}

// Register adds or replaces a criterion under the given name.
func (r *Registry) Register(name string, c Criterion) error {
	if name == "" {
		return ErrEmptyName
	}
	r.criteria[name] = c
	return nil
}

func (r *Registry) lookup(name string) (Criterion, error) {
	c, ok := r.criteria[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCriterion, name)
	}
	return c, nil
}

// Check evaluates the entry against each named criterion in order and
// aggregates the score as (passes/total)*100, rounded to two decimals.
// There is no partial credit within a criterion. The criteria list must
// be non-empty and every name must be registered.
func (r *Registry) Check(entry annotation.Annotation, criteria []string, at time.Time) (Result, error) {
	if len(criteria) == 0 {
		return Result{}, ErrNoCriteria
	}

	checks := make([]CheckResult, 0, len(criteria))
	passes := 0
	for _, name := range criteria {
		c, err := r.lookup(name)
		if err != nil {
			return Result{}, err
		}
		passed, detail := c(entry)
		if passed {
			passes++
		}
		checks = append(checks, CheckResult{Criterion: name, Passed: passed, Detail: detail})
	}

	score := float64(passes) / float64(len(criteria)) * 100
	return Result{
		RID:       uuid.New(),
		Entry:     entry,
		Checks:    checks,
		Score:     round2(score),
		CreatedAt: at,
	}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Completeness passes when every field of the entry is populated,
// including notes.
func Completeness(a annotation.Annotation) (bool, string) {
	if a.ID == "" || a.Category == "" || a.Confidence == 0 || a.Notes == "" || a.CreatedAt.IsZero() {
		return false, "missing data"
	}
	return true, "complete"
}

// Format passes when the entry id is a well-formed identifier:
// non-empty and free of whitespace.
func Format(a annotation.Annotation) (bool, string) {
	if a.ID == "" {
		return false, "empty id"
	}
	for _, r := range a.ID {
		if unicode.IsSpace(r) {
			return false, "id contains whitespace"
		}
	}
	return true, "correct format"
}

// Consistency passes when the confidence value sits on the 1-5 scale.
func Consistency(a annotation.Annotation) (bool, string) {
	if a.Confidence < annotation.MinConfidence || a.Confidence > annotation.MaxConfidence {
		return false, "inconsistent confidence value"
	}
	return true, "consistent"
}
