package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

func testClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func populatedStore(t *testing.T) *session.Store {
	t.Helper()
	s := session.New(session.WithClock(testClock()))

	entries := []struct {
		id, category string
		confidence   int
		notes        string
	}{
		{"IMG_001", "vehicle", 5, "clear image of a car"},
		{"IMG_002", "person", 4, "person in good lighting"},
		{"IMG_003", "vehicle", 5, "truck, side view"},
	}
	for _, e := range entries {
		a, err := s.Annotate(e.id, e.category, e.confidence, e.notes)
		if err != nil {
			t.Fatalf("Annotate(%s): %v", e.id, err)
		}
		if _, err := s.QualityCheck(a, []string{"completeness", "format", "consistency"}); err != nil {
			t.Fatalf("QualityCheck(%s): %v", e.id, err)
		}
	}
	if _, err := s.Compare("detailed notes", "minimal notes", "completeness", annotation.WinnerA); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return s
}

func TestBuildEmptyStore(t *testing.T) {
	s := session.New(session.WithClock(testClock()))
	r := Build(s)

	sum := r.Summary
	if sum.TotalAnnotations != 0 || sum.TotalQualityChecks != 0 || sum.TotalComparisons != 0 {
		t.Errorf("empty store produced non-zero counts: %+v", sum)
	}
	if sum.AverageQualityScore != 0 || sum.AverageConfidence != 0 {
		t.Errorf("empty store produced non-zero averages: %+v", sum)
	}
	if r.Records.Annotations == nil || r.Records.QualityChecks == nil || r.Records.Comparisons == nil {
		t.Error("record slices must be non-nil for an empty report")
	}
}

func TestBuildSummary(t *testing.T) {
	r := Build(populatedStore(t))
	sum := r.Summary

	if sum.TotalAnnotations != 3 || sum.TotalQualityChecks != 3 || sum.TotalComparisons != 1 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	if sum.AverageQualityScore != 100.00 {
		t.Errorf("average quality score = %v, want 100.00", sum.AverageQualityScore)
	}
	// (5+4+5)/3 = 4.666... -> 4.67
	if sum.AverageConfidence != 4.67 {
		t.Errorf("average confidence = %v, want 4.67", sum.AverageConfidence)
	}
	if sum.UniqueCategories != 2 {
		t.Errorf("unique categories = %d, want 2", sum.UniqueCategories)
	}
	if sum.CategoryCounts["vehicle"] != 2 || sum.CategoryCounts["person"] != 1 {
		t.Errorf("category counts = %v", sum.CategoryCounts)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotation_report.json")

	if err := Build(populatedStore(t)).WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var doc struct {
		Summary Summary `json:"summary"`
		Records struct {
			Annotations []annotation.Annotation `json:"annotations"`
		} `json:"records"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if doc.Summary.TotalAnnotations != 3 {
		t.Errorf("round-tripped total = %d, want 3", doc.Summary.TotalAnnotations)
	}
	if len(doc.Records.Annotations) != 3 {
		t.Errorf("round-tripped %d annotations, want 3", len(doc.Records.Annotations))
	}
	if doc.Records.Annotations[0].ID != "IMG_001" {
		t.Errorf("first annotation id = %q", doc.Records.Annotations[0].ID)
	}
}

func TestWriteJSONUnwritablePath(t *testing.T) {
	err := Build(session.New()).WriteJSON(filepath.Join(t.TempDir(), "missing", "report.json"))
	if err == nil {
		t.Fatal("expected an error for an unwritable path")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	s := session.New(session.WithClock(testClock()))
	s.Annotate("IMG_001", "vehicle", 5, "car, side view, slight blur")
	s.Annotate("IMG_002", "person", 4, `notes with "quotes"`)

	path := filepath.Join(t.TempDir(), "annotations.csv")
	if err := WriteCSV(path, s.Annotations()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	header := rows[0]
	for i, col := range CSVHeader {
		if header[i] != col {
			t.Errorf("header column %d = %q, want %q", i, header[i], col)
		}
	}

	want := s.Annotations()
	for i, row := range rows[1:] {
		a := want[i]
		if row[0] != a.ID || row[1] != a.Category || row[3] != a.Notes {
			t.Errorf("row %d = %v, want %+v", i, row, a)
		}
		conf, err := strconv.Atoi(row[2])
		if err != nil || conf != a.Confidence {
			t.Errorf("row %d confidence = %q, want %d", i, row[2], a.Confidence)
		}
		if row[4] != a.CreatedAt.Format(time.RFC3339Nano) {
			t.Errorf("row %d timestamp = %q, want %q", i, row[4], a.CreatedAt.Format(time.RFC3339Nano))
		}
	}
}

func TestWriteCSVEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.csv")
	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV on empty records: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if string(data) != "id,category,confidence,notes,timestamp\n" {
		t.Errorf("empty export = %q, want header only", string(data))
	}
}
