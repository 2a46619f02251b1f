package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Girlweb/ai-data-annotation-tool/internal/annotation"
	"github.com/Girlweb/ai-data-annotation-tool/internal/archive"
	"github.com/Girlweb/ai-data-annotation-tool/internal/config"
	"github.com/Girlweb/ai-data-annotation-tool/internal/report"
	"github.com/Girlweb/ai-data-annotation-tool/internal/session"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration annotation workflow",
	Long: `Run a scripted workflow: annotate a handful of images, score the
first three against the configured quality criteria, record two pairwise
comparisons, scan for category conflicts, and export the results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runDemo(cfg)
	},
}

func init() {
	addExportFlags(demoCmd)
}

func runDemo(cfg config.Config) error {
	s := session.New()

	printStep("Image classification")
	seed := []struct {
		id, category string
		confidence   int
		notes        string
	}{
		{"IMG_001", "vehicle", 5, "clear image of a car"},
		{"IMG_002", "person", 4, "person in good lighting"},
		{"IMG_003", "animal", 5, "dog clearly visible"},
		{"IMG_004", "building", 4, "office building, slight blur"},
		{"IMG_005", "vehicle", 5, "truck, side view"},
		{"IMG_001", "building", 3, "second pass, label disputed"},
	}
	for _, e := range seed {
		a, err := s.Annotate(e.id, e.category, e.confidence, e.notes)
		if err != nil {
			return err
		}
		printSuccess("annotated %s as %q (confidence %d/%d)", a.ID, a.Category, a.Confidence, annotation.MaxConfidence)
	}

	printStep("Quality assessment")
	for _, a := range s.Annotations()[:3] {
		res, err := s.QualityCheck(a, cfg.Criteria)
		if err != nil {
			return err
		}
		printStatus(a.ID, "%d/%d criteria passed (%.2f%%)", res.Passes(), len(res.Checks), res.Score)
	}

	printStep("Pairwise comparisons")
	decisions := []struct {
		a, b, criterion string
		winner          annotation.Winner
	}{
		{"annotation with detailed notes", "annotation with minimal notes", "completeness", annotation.WinnerA},
		{"high confidence classification", "low confidence classification", "reliability", annotation.WinnerA},
	}
	for _, d := range decisions {
		c, err := s.Compare(d.a, d.b, d.criterion, d.winner)
		if err != nil {
			return err
		}
		printStatus(c.Criterion, "winner: %s", c.Winner)
	}

	printStep("Consistency analysis")
	inconsistencies := s.Inconsistencies()
	if len(inconsistencies) == 0 {
		printSuccess("no category conflicts")
	}
	for _, inc := range inconsistencies {
		printWarning("%s labeled %s across %d annotations", inc.ID, strings.Join(inc.Categories, " / "), inc.Occurrences)
	}

	printStep("Report generation")
	return exportAll(cfg, s)
}

// exportAll writes the JSON report, the CSV export, and, when
// configured, the SQLite archive, then prints summary statistics.
func exportAll(cfg config.Config, s *session.Store) error {
	rep := report.Build(s)

	if err := rep.WriteJSON(cfg.Export.Report); err != nil {
		printError("report export failed")
		return err
	}
	printSuccess("report saved to %s", cfg.Export.Report)

	if err := report.WriteCSV(cfg.Export.CSV, rep.Records.Annotations); err != nil {
		printError("csv export failed")
		return err
	}
	printSuccess("annotations exported to %s", cfg.Export.CSV)

	if cfg.Export.Archive != "" {
		arch, err := archive.Open(cfg.Export.Archive)
		if err != nil {
			return err
		}
		if err := arch.Save(s); err != nil {
			arch.Close()
			return err
		}
		if err := arch.Close(); err != nil {
			return err
		}
		printSuccess("records archived to %s", cfg.Export.Archive)
	}

	sum := rep.Summary
	printStatus("annotations", "%d", sum.TotalAnnotations)
	printStatus("quality checks", "%d", sum.TotalQualityChecks)
	printStatus("comparisons", "%d", sum.TotalComparisons)
	if sum.TotalQualityChecks > 0 {
		printStatus("average quality", "%.2f%%", sum.AverageQualityScore)
	}
	return nil
}
