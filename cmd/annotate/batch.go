package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run annotations, checks, and comparisons from a YAML task file",
	Long: `Run a task file and export the results.

Example task file:

  annotations:
    - id: IMG_100
      category: landscape
      confidence: 5
      notes: wide shot, good exposure
  checks:
    - id: IMG_100
      criteria: [completeness, format]
  comparisons:
    - item_a: IMG_100
      item_b: IMG_101
      criterion: sharpness
      winner: A`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		tasks, err := loadBatch(args[0])
		if err != nil {
			return err
		}

		s := session.New()
		if err := runBatch(s, tasks, cfg.Criteria); err != nil {
			return err
		}
		return exportAll(cfg, s)
	},
}

func init() {
	addExportFlags(batchCmd)
}

type batchFile struct {
	Annotations []batchAnnotation `yaml:"annotations"`
	Checks      []batchCheck      `yaml:"checks"`
	Comparisons []batchComparison `yaml:"comparisons"`
}

type batchAnnotation struct {
	ID         string `yaml:"id"`
	Category   string `yaml:"category"`
	Confidence int    `yaml:"confidence"`
	Notes      string `yaml:"notes"`
}

// batchCheck applies criteria to every annotation carrying the id.
// An empty criteria list falls back to the configured default.
type batchCheck struct {
	ID       string   `yaml:"id"`
	Criteria []string `yaml:"criteria"`
}

type batchComparison struct {
	ItemA     string `yaml:"item_a"`
	ItemB     string `yaml:"item_b"`
	Criterion string `yaml:"criterion"`
	Winner    string `yaml:"winner"`
}

func loadBatch(path string) (batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batchFile{}, fmt.Errorf("reading task file: %w", err)
	}
	var b batchFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return batchFile{}, fmt.Errorf("parsing task file %s: %w", path, err)
	}
	if len(b.Annotations) == 0 && len(b.Comparisons) == 0 {
		return batchFile{}, fmt.Errorf("task file %s contains no annotations or comparisons", path)
	}
	return b, nil
}

func runBatch(s *session.Store, tasks batchFile, defaultCriteria []string) error {
	for _, t := range tasks.Annotations {
		a, err := s.Annotate(t.ID, t.Category, t.Confidence, t.Notes)
		if err != nil {
			return fmt.Errorf("annotating %s: %w", t.ID, err)
		}
		printSuccess("annotated %s as %q (confidence %d/%d)", a.ID, a.Category, a.Confidence, annotation.MaxConfidence)
	}

	for _, t := range tasks.Checks {
		criteria := t.Criteria
		if len(criteria) == 0 {
			criteria = defaultCriteria
		}

		matched := 0
		for _, a := range s.Annotations() {
			if a.ID != t.ID {
				continue
			}
			matched++
			res, err := s.QualityCheck(a, criteria)
			if err != nil {
				return fmt.Errorf("checking %s: %w", t.ID, err)
			}
			printStatus(a.ID, "%d/%d criteria passed (%.2f%%)", res.Passes(), len(res.Checks), res.Score)
		}
		if matched == 0 {
			return fmt.Errorf("check references unknown annotation id %q", t.ID)
		}
	}

	for _, t := range tasks.Comparisons {
		c, err := s.Compare(t.ItemA, t.ItemB, t.Criterion, annotation.Winner(t.Winner))
		if err != nil {
			return fmt.Errorf("comparing %q and %q: %w", t.ItemA, t.ItemB, err)
		}
		printStatus(c.Criterion, "winner: %s", c.Winner)
	}

	for _, inc := range s.Inconsistencies() {
		printWarning("%s carries conflicting categories (%d annotations)", inc.ID, inc.Occurrences)
	}

	return nil
}
