// Package annotation defines the record types produced during an
// annotation session: category labels, pairwise comparison decisions,
// and the inconsistency reports derived from them.
package annotation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Confidence bounds for an annotation, inclusive.
const (
	MinConfidence = 1
	MaxConfidence = 5
)

var (
	// ErrConfidenceRange is returned when a confidence value falls
	// outside the 1-5 scale.
	ErrConfidenceRange = errors.New("confidence out of range")

	// ErrEmptyCriterion is returned when a comparison is recorded
	// without a criterion.
	ErrEmptyCriterion = errors.New("criterion must not be empty")

	// ErrUnknownWinner is returned when a comparison decision is not
	// one of A, B, or Tie.
	ErrUnknownWinner = errors.New("unknown winner")
)

// Annotation labels a single item (typically an image) with a category
// and a 1-5 confidence level. IDs are not unique: the same item may be
// annotated more than once, and disagreements between duplicates are
// what Inconsistencies reports.
type Annotation struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Confidence int       `json:"confidence"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// New validates the confidence scale and builds an Annotation stamped
// with the given creation time.
func New(id, category string, confidence int, notes string, at time.Time) (Annotation, error) {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return Annotation{}, fmt.Errorf("%w: %d (want %d-%d)", ErrConfidenceRange, confidence, MinConfidence, MaxConfidence)
	}
	return Annotation{
		ID:         id,
		Category:   category,
		Confidence: confidence,
		Notes:      notes,
		CreatedAt:  at,
	}, nil
}

// Winner identifies the preferred side of a pairwise comparison.
type Winner string

const (
	WinnerA   Winner = "A"
	WinnerB   Winner = "B"
	WinnerTie Winner = "Tie"
)

// Valid reports whether w is one of the three accepted decisions.
func (w Winner) Valid() bool {
	switch w {
	case WinnerA, WinnerB, WinnerTie:
		return true
	}
	return false
}

// Comparison records a caller-supplied decision between two items under
// a named criterion. The tool never computes the winner itself.
type Comparison struct {
	RID       uuid.UUID `json:"rid"`
	ItemA     string    `json:"item_a"`
	ItemB     string    `json:"item_b"`
	Criterion string    `json:"criterion"`
	Winner    Winner    `json:"winner"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComparison validates the criterion and decision and builds a
// Comparison with a fresh record id.
func NewComparison(itemA, itemB, criterion string, winner Winner, at time.Time) (Comparison, error) {
	if criterion == "" {
		return Comparison{}, ErrEmptyCriterion
	}
	if !winner.Valid() {
		return Comparison{}, fmt.Errorf("%w: %q", ErrUnknownWinner, winner)
	}
	return Comparison{
		RID:       uuid.New(),
		ItemA:     itemA,
		ItemB:     itemB,
		Criterion: criterion,
		Winner:    winner,
		CreatedAt: at,
	}, nil
}

// Inconsistency reports an id that was annotated with more than one
// distinct category.
type Inconsistency struct {
	ID          string   `json:"id"`
	Categories  []string `json:"categories"`
	Occurrences int      `json:"occurrences"`
}

// FindInconsistencies scans annotations grouped by id and reports every
// id carrying two or more distinct categories. Categories within a
// report are sorted; reports are ordered by the first appearance of the
// offending id.
func FindInconsistencies(annotations []Annotation) []Inconsistency {
	type group struct {
		categories map[string]struct{}
		count      int
	}

	groups := make(map[string]*group)
	var order []string
	for _, a := range annotations {
		g, ok := groups[a.ID]
		if !ok {
			g = &group{categories: make(map[string]struct{})}
			groups[a.ID] = g
			order = append(order, a.ID)
		}
		g.categories[a.Category] = struct{}{}
		g.count++
	}

	var out []Inconsistency
	for _, id := range order {
		g := groups[id]
		if len(g.categories) < 2 {
			continue
		}
		cats := make([]string, 0, len(g.categories))
		for c := range g.categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		out = append(out, Inconsistency{
			ID:          id,
			Categories:  cats,
			Occurrences: g.count,
		})
	}
	return out
}
