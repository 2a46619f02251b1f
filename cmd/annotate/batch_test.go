package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/config"
	"github.com/Girlweb/ai-data-annotation-tool/internal/quality"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing task file: %v", err)
	}
	return path
}

const validTasks = `annotations:
  - id: IMG_100
    category: landscape
    confidence: 5
    notes: wide shot
  - id: IMG_101
    category: portrait
    confidence: 4
    notes: tight crop
checks:
  - id: IMG_100
    criteria: [completeness, format]
  - id: IMG_101
comparisons:
  - item_a: IMG_100
    item_b: IMG_101
    criterion: sharpness
    winner: A
`

func TestLoadBatch(t *testing.T) {
	b, err := loadBatch(writeTaskFile(t, validTasks))
	if err != nil {
		t.Fatalf("loadBatch: %v", err)
	}
	if len(b.Annotations) != 2 || len(b.Checks) != 2 || len(b.Comparisons) != 1 {
		t.Errorf("unexpected batch: %+v", b)
	}
	if b.Checks[1].Criteria != nil {
		t.Errorf("check without criteria should stay nil, got %v", b.Checks[1].Criteria)
	}
}

func TestLoadBatchMissingFile(t *testing.T) {
	if _, err := loadBatch(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing task file")
	}
}

func TestLoadBatchInvalidYAML(t *testing.T) {
	if _, err := loadBatch(writeTaskFile(t, "annotations: [broken")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadBatchEmpty(t *testing.T) {
	if _, err := loadBatch(writeTaskFile(t, "checks: []")); err == nil {
		t.Fatal("expected an error for a task file with nothing to do")
	}
}

func TestRunBatch(t *testing.T) {
	b, err := loadBatch(writeTaskFile(t, validTasks))
	if err != nil {
		t.Fatalf("loadBatch: %v", err)
	}

	s := session.New()
	if err := runBatch(s, b, []string{"completeness", "format", "consistency"}); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	if n := len(s.Annotations()); n != 2 {
		t.Errorf("stored %d annotations, want 2", n)
	}
	results := s.QualityResults()
	if len(results) != 2 {
		t.Fatalf("stored %d quality results, want 2", len(results))
	}
	// First check names its own criteria; second falls back to the default.
	if len(results[0].Checks) != 2 {
		t.Errorf("first check evaluated %d criteria, want 2", len(results[0].Checks))
	}
	if len(results[1].Checks) != 3 {
		t.Errorf("second check evaluated %d criteria, want 3 (default)", len(results[1].Checks))
	}
	comparisons := s.Comparisons()
	if len(comparisons) != 1 || comparisons[0].Winner != annotation.WinnerA {
		t.Errorf("unexpected comparisons: %+v", comparisons)
	}
}

func TestRunBatchUnknownCheckID(t *testing.T) {
	b := batchFile{
		Annotations: []batchAnnotation{{ID: "IMG_100", Category: "landscape", Confidence: 5}},
		Checks:      []batchCheck{{ID: "IMG_999"}},
	}
	err := runBatch(session.New(), b, []string{"completeness"})
	if err == nil || !strings.Contains(err.Error(), "IMG_999") {
		t.Errorf("got %v, want unknown id error naming IMG_999", err)
	}
}

func TestRunBatchBadConfidence(t *testing.T) {
	b := batchFile{
		Annotations: []batchAnnotation{{ID: "IMG_100", Category: "landscape", Confidence: 9}},
	}
	if err := runBatch(session.New(), b, nil); !errors.Is(err, annotation.ErrConfidenceRange) {
		t.Errorf("got %v, want ErrConfidenceRange", err)
	}
}

func TestRunBatchBadWinner(t *testing.T) {
	b := batchFile{
		Comparisons: []batchComparison{{ItemA: "x", ItemB: "y", Criterion: "quality", Winner: "Z"}},
	}
	if err := runBatch(session.New(), b, nil); !errors.Is(err, annotation.ErrUnknownWinner) {
		t.Errorf("got %v, want ErrUnknownWinner", err)
	}
}

func TestRunBatchEmptyCriteria(t *testing.T) {
	b := batchFile{
		Annotations: []batchAnnotation{{ID: "IMG_100", Category: "landscape", Confidence: 5}},
		Checks:      []batchCheck{{ID: "IMG_100"}},
	}
	// No per-check criteria and no default either.
	if err := runBatch(session.New(), b, nil); !errors.Is(err, quality.ErrNoCriteria) {
		t.Errorf("got %v, want ErrNoCriteria", err)
	}
}

func TestExportAllWritesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Criteria: []string{"completeness"},
		Export: config.ExportConfig{
			Report:  filepath.Join(dir, "report.json"),
			CSV:     filepath.Join(dir, "annotations.csv"),
			Archive: filepath.Join(dir, "annotations.db"),
		},
	}

	s := session.New()
	if _, err := s.Annotate("IMG_100", "landscape", 5, "n"); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	if err := exportAll(cfg, s); err != nil {
		t.Fatalf("exportAll: %v", err)
	}
	for _, path := range []string{cfg.Export.Report, cfg.Export.CSV, cfg.Export.Archive} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected export file %s: %v", path, err)
		}
	}
}

func TestExportAllUnwritableReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Export: config.ExportConfig{
			Report: filepath.Join(dir, "missing", "report.json"),
			CSV:    filepath.Join(dir, "annotations.csv"),
		},
	}
	if err := exportAll(cfg, session.New()); err == nil {
		t.Fatal("expected an error for an unwritable report path")
	}
}

func TestRunDemo(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Criteria: []string{"completeness", "format", "consistency"},
		Export: config.ExportConfig{
			Report: filepath.Join(dir, "report.json"),
			CSV:    filepath.Join(dir, "annotations.csv"),
		},
	}
	if err := runDemo(cfg); err != nil {
		t.Fatalf("runDemo: %v", err)
	}
	if _, err := os.Stat(cfg.Export.Report); err != nil {
		t.Errorf("demo report missing: %v", err)
	}
	if _, err := os.Stat(cfg.Export.CSV); err != nil {
		t.Errorf("demo csv missing: %v", err)
	}
}
