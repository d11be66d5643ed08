package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atacama-group/seia-cli/internal/audit"
	"github.com/atacama-group/seia-cli/internal/engine"
	"github.com/atacama-group/seia-cli/internal/gis"
	"github.com/atacama-group/seia-cli/internal/model"
	"github.com/atacama-group/seia-cli/internal/report"
	"github.com/atacama-group/seia-cli/internal/rules"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <facts.json> [facts.json...]",
	Short: "Classify projects as DIA or EIA",
	Long: `Evaluates one or more project fact files against the active rule set.

Each input file holds the declared parameters and, optionally, the site
geometry and precomputed spatial facts for one project:

  {
    "project_id": "MINA-CU-0042",
    "type": "mineria",
    "attributes": {"monthly_tonnage_t": {"kind": "number", "number": 8000}},
    "site_geojson": {"type": "Polygon", "coordinates": [...]}
  }

With --gis, spatial facts for layers the file does not cover are computed
from the imported sensitive layers (requires the postgres store and a
site_geojson geometry).

Examples:
  # Single project, human-readable output
  seia analyze project.json

  # Batch with persistence and JSON output
  seia analyze projects/*.json --save --format json --output results.json

  # Compute spatial facts from imported layers and write a prose report
  seia analyze project.json --gis --report`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("rules", "", "rule file path (default: config, then embedded defaults)")
	f.String("format", "table", "output format: table, json, or csv")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "persist each run to the audit store")
	f.Bool("gis", false, "compute missing spatial facts from imported layers")
	f.Bool("report", false, "generate prose justification via the Anthropic API")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeInput is the on-disk shape of one project: the facts plus an
// optional site geometry used for GIS enrichment.
type analyzeInput struct {
	model.ProjectFacts
	SiteGeoJSON json.RawMessage `json:"site_geojson,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	useGIS, _ := cmd.Flags().GetBool("gis")
	wantReport, _ := cmd.Flags().GetBool("report")

	if format != "table" && format != "json" && format != "csv" {
		return eris.Errorf("analyze: --format must be table, json, or csv (got %q)", format)
	}

	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}

	var loader *gis.FactsLoader
	if useGIS {
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := audit.Migrate(ctx, pool); err != nil {
			return err
		}
		loader = gis.NewFactsLoader(pool)
	}

	var st audit.Store
	if save {
		store, cleanup, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		st = store
	}

	var writer *report.Writer
	if wantReport {
		if cfg.Anthropic.Key == "" {
			return eris.New("analyze: --report requires an Anthropic API key (SEIA_ANTHROPIC_KEY)")
		}
		writer = report.NewWriter(
			report.NewMessenger(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
			cfg.Anthropic.RequestsPerMinute,
		)
	}

	log := zap.L().With(zap.String("command", "analyze"))
	log.Info("starting analysis",
		zap.Int("projects", len(args)),
		zap.String("rules_hash", snap.Hash),
	)

	results := make([]*model.ClassificationResult, len(args))
	proses := make([]string, len(args))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Analyze.MaxConcurrentProjects)

	for i, path := range args {
		g.Go(func() error {
			res, prose, err := analyzeOne(gctx, path, snap, loader, st, writer)
			if err != nil {
				return eris.Wrapf(err, "analyze: %s", path)
			}
			mu.Lock()
			results[i] = res
			proses[i] = prose
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := outputResults(results, format, outputPath); err != nil {
		return err
	}
	for i, prose := range proses {
		if prose != "" {
			fmt.Printf("\n--- Informe %s ---\n%s\n", results[i].ProjectID, prose)
		}
	}

	return nil
}

// analyzeOne runs the full pipeline for a single fact file.
func analyzeOne(ctx context.Context, path string, snap *rules.Snapshot, loader *gis.FactsLoader, st audit.Store, writer *report.Writer) (*model.ClassificationResult, string, error) {
	in, err := readInput(path)
	if err != nil {
		return nil, "", err
	}

	if len(in.SiteGeoJSON) > 0 {
		if err := enrichFromGeometry(ctx, in, loader); err != nil {
			return nil, "", err
		}
	}

	res, err := engine.Run(&in.ProjectFacts, snap)
	if err != nil {
		return nil, "", err
	}

	if st != nil {
		rec, err := audit.NewRecord(&in.ProjectFacts, res)
		if err != nil {
			return nil, "", err
		}
		if err := st.SaveRun(ctx, rec); err != nil {
			return nil, "", err
		}
	}

	var prose string
	if writer != nil {
		prose, err = writer.Write(ctx, res)
		if err != nil {
			// The classification stands; report the failure and move on.
			zap.L().Warn("analyze: report generation failed",
				zap.String("project_id", res.ProjectID),
				zap.Error(err),
			)
		}
	}

	return res, prose, nil
}

func readInput(path string) (*analyzeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read fact file")
	}
	var in analyzeInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, eris.Wrap(err, "parse fact file")
	}
	return &in, nil
}

// enrichFromGeometry derives area and centroid from the site geometry and,
// when a loader is available, fills in spatial facts for layers the file
// does not already cover.
func enrichFromGeometry(ctx context.Context, in *analyzeInput, loader *gis.FactsLoader) error {
	metrics, err := gis.ComputeSiteMetrics(in.SiteGeoJSON)
	if err != nil {
		return err
	}
	if in.AreaHa == nil {
		in.AreaHa = &metrics.AreaHa
	}
	if in.CentroidLat == nil {
		in.CentroidLat = &metrics.CentroidLat
		in.CentroidLng = &metrics.CentroidLng
	}
	if in.Attributes == nil {
		in.Attributes = map[string]model.AttributeValue{}
	}
	if _, ok := in.Attributes[model.AttrSurfaceArea]; !ok {
		in.Attributes[model.AttrSurfaceArea] = model.NumberValue(*in.AreaHa)
	}

	if loader == nil {
		return nil
	}
	facts, err := loader.LoadFacts(ctx, in.SiteGeoJSON)
	if err != nil {
		return err
	}
	if in.Spatial == nil {
		in.Spatial = map[model.LayerType]model.SpatialFact{}
	}
	for layer, f := range facts {
		if _, ok := in.Spatial[layer]; !ok {
			in.Spatial[layer] = f
		}
	}
	return nil
}

func outputResults(results []*model.ClassificationResult, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "analyze: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	case "csv":
		return writeResultCSV(w, results)
	default:
		if len(results) == 1 {
			printSingleResult(w, results[0])
			return nil
		}
		return writeResultTable(w, results)
	}
}

func printSingleResult(w *os.File, r *model.ClassificationResult) {
	fmt.Fprintf(w, "Project:     %s\n", r.ProjectID)
	fmt.Fprintf(w, "Pathway:     %s\n", r.Pathway)
	fmt.Fprintf(w, "Confidence:  %.2f (%s)\n", r.Confidence, r.Tier)
	fmt.Fprintf(w, "Matrix:      %.1f / 100\n", r.MatrixScore)
	fmt.Fprintf(w, "Rules hash:  %s\n", r.RulesHash)
	fmt.Fprintf(w, "Run ID:      %s\n", r.RunID)

	if len(r.Triggers) > 0 {
		fmt.Fprintln(w, "\nTriggers:")
		for _, t := range r.Triggers {
			fmt.Fprintf(w, "  [%s] %-8s %s\n", t.Letter, t.Severity, t.Detail)
		}
	}
	if len(r.Alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts:")
		for _, a := range r.Alerts {
			fmt.Fprintf(w, "  %-8s %-12s %s\n", a.Severity, a.Category, a.Title)
		}
	}
	if len(r.MissingInputs) > 0 {
		fmt.Fprintf(w, "\nMissing inputs: %s\n", strings.Join(r.MissingInputs, ", "))
	}
	fmt.Fprintln(w, "\nJustification:")
	for _, reason := range r.Justification {
		if reason.Letter != "" {
			fmt.Fprintf(w, "  [letra %s] %s\n", reason.Letter, reason.Summary)
		} else {
			fmt.Fprintf(w, "  %s\n", reason.Summary)
		}
	}
}

func writeResultTable(w *os.File, results []*model.ClassificationResult) error {
	header := fmt.Sprintf("%-24s %-8s %-11s %-10s %7s %9s %7s\n",
		"Project", "Pathway", "Confidence", "Tier", "Matrix", "Triggers", "Alerts")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "analyze: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 82)); err != nil {
		return eris.Wrap(err, "analyze: write table separator")
	}

	for _, r := range results {
		id := r.ProjectID
		if len(id) > 24 {
			id = id[:21] + "..."
		}
		line := fmt.Sprintf("%-24s %-8s %-11.2f %-10s %7.1f %9d %7d\n",
			id, r.Pathway, r.Confidence, r.Tier, r.MatrixScore, len(r.Triggers), len(r.Alerts))
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "analyze: write table row")
		}
	}
	return nil
}

func writeResultCSV(w *os.File, results []*model.ClassificationResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"run_id", "project_id", "pathway", "confidence", "tier", "matrix_score", "triggers", "alerts", "rules_hash"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "analyze: write CSV header")
	}

	for _, r := range results {
		letters := make([]string, len(r.Triggers))
		for i, t := range r.Triggers {
			letters[i] = string(t.Letter)
		}
		row := []string{
			r.RunID,
			r.ProjectID,
			string(r.Pathway),
			fmt.Sprintf("%.4f", r.Confidence),
			string(r.Tier),
			fmt.Sprintf("%.1f", r.MatrixScore),
			strings.Join(letters, ";"),
			fmt.Sprintf("%d", len(r.Alerts)),
			r.RulesHash,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "analyze: write CSV row")
		}
	}
	return nil
}
