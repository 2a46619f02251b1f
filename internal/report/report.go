// Package report aggregates a session's records into summary
// statistics and serializes them to JSON and CSV files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/quality"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

// Summary carries the aggregate statistics of a run. An empty run
// produces all-zero counts, never an error.
type Summary struct {
	TotalAnnotations    int            `json:"total_annotations"`
	TotalQualityChecks  int            `json:"total_quality_checks"`
	TotalComparisons    int            `json:"total_comparisons"`
	AverageQualityScore float64        `json:"average_quality_score"`
	AverageConfidence   float64        `json:"average_confidence"`
	UniqueCategories    int            `json:"unique_categories"`
	CategoryCounts      map[string]int `json:"category_counts"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// Records holds the raw record arrays. Slices are always non-nil so an
// empty report serializes as [] rather than null.
type Records struct {
	Annotations   []annotation.Annotation `json:"annotations"`
	QualityChecks []quality.Result        `json:"quality_checks"`
	Comparisons   []annotation.Comparison `json:"comparisons"`
}

// Report is the full export document: summary plus raw records.
type Report struct {
	Summary Summary `json:"summary"`
	Records Records `json:"records"`
}

// Build aggregates the store contents into a Report. No records are
// mutated; the store clock advances once for the generated-at stamp.
func Build(s *session.Store) Report {
	annotations := s.Annotations()
	results := s.QualityResults()
	comparisons := s.Comparisons()

	counts := make(map[string]int)
	confidenceSum := 0
	for _, a := range annotations {
		counts[a.Category]++
		confidenceSum += a.Confidence
	}

	scoreSum := 0.0
	for _, r := range results {
		scoreSum += r.Score
	}

	summary := Summary{
		TotalAnnotations:   len(annotations),
		TotalQualityChecks: len(results),
		TotalComparisons:   len(comparisons),
		UniqueCategories:   len(counts),
		CategoryCounts:     counts,
		GeneratedAt:        s.Timestamp(),
	}
	if len(results) > 0 {
		summary.AverageQualityScore = round2(scoreSum / float64(len(results)))
	}
	if len(annotations) > 0 {
		summary.AverageConfidence = round2(float64(confidenceSum) / float64(len(annotations)))
	}

	return Report{
		Summary: summary,
		Records: Records{
			Annotations:   annotations,
			QualityChecks: results,
			Comparisons:   comparisons,
		},
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// WriteJSON writes the report as indented JSON to path. Key order is
// fixed by the struct layout; timestamps serialize as RFC 3339 strings.
func (r Report) WriteJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		f.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// CSVHeader is the fixed column order of the annotation CSV export.
var CSVHeader = []string{"id", "category", "confidence", "notes", "timestamp"}

// WriteCSV writes one row per annotation to path. Fields containing
// commas or quotes are quoted by the csv writer; timestamps are
// RFC 3339 strings. An empty record set writes just the header.
func WriteCSV(path string, annotations []annotation.Annotation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, a := range annotations {
		row := []string{
			a.ID,
			a.Category,
			strconv.Itoa(a.Confidence),
			a.Notes,
			a.CreatedAt.Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
