package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/atacama-group/seia-cli/internal/audit"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect classification run history",
	Long:  "Commands for listing, viewing, and exporting stored classification runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, cleanup, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListRuns(ctx, project, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, recs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full audit record of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, cleanup, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// -- runs export --

var runsExportCmd = &cobra.Command{
	Use:   "export <output-file>",
	Short: "Export runs to CSV or XLSX",
	Long:  "Exports stored runs to the given file. The format follows the file extension (.csv or .xlsx).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, cleanup, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListRuns(ctx, project, limit)
		if err != nil {
			return eris.Wrap(err, "runs export")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		out := args[0]
		switch {
		case strings.HasSuffix(out, ".xlsx"):
			err = exportRunsXLSX(out, recs)
		case strings.HasSuffix(out, ".csv"):
			err = exportRunsCSV(out, recs)
		default:
			return eris.Errorf("runs export: unsupported extension in %q (want .csv or .xlsx)", out)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d runs to %s\n", len(recs), out)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("project", "", "filter by project ID")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsExportCmd.Flags().String("project", "", "filter by project ID")
	runsExportCmd.Flags().Int("limit", 1000, "max number of runs to export")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, recs []audit.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tPROJECT\tPATHWAY\tCONF\tTIER\tMATRIX\tCREATED")
	_, _ = fmt.Fprintln(w, "---\t-------\t-------\t----\t----\t------\t-------")

	for _, r := range recs {
		project := r.ProjectID
		if len(project) > 30 {
			project = project[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%.1f\t%s\n",
			truncateID(r.RunID),
			project,
			r.Result.Pathway,
			r.Result.Confidence,
			r.Result.Tier,
			r.Result.MatrixScore,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

var exportHeader = []string{
	"run_id", "project_id", "pathway", "confidence", "tier", "matrix_score",
	"triggers", "alerts", "input_hash", "rules_hash", "created_at",
}

// exportRow flattens one record into export columns.
func exportRow(r audit.Record) []string {
	letters := make([]string, len(r.Result.Triggers))
	for i, t := range r.Result.Triggers {
		letters[i] = string(t.Letter)
	}
	return []string{
		r.RunID,
		r.ProjectID,
		string(r.Result.Pathway),
		fmt.Sprintf("%.4f", r.Result.Confidence),
		string(r.Result.Tier),
		fmt.Sprintf("%.1f", r.Result.MatrixScore),
		strings.Join(letters, ";"),
		fmt.Sprintf("%d", len(r.Result.Alerts)),
		r.InputHash,
		r.RulesHash,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func exportRunsCSV(path string, recs []audit.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "runs export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "runs export: write CSV header")
	}
	for _, r := range recs {
		if err := cw.Write(exportRow(r)); err != nil {
			return eris.Wrap(err, "runs export: write CSV row")
		}
	}
	return nil
}

func exportRunsXLSX(path string, recs []audit.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("runs")
	if err != nil {
		return eris.Wrap(err, "runs export: add sheet")
	}

	hdr := sheet.AddRow()
	for _, c := range exportHeader {
		hdr.AddCell().SetString(c)
	}
	for _, r := range recs {
		row := sheet.AddRow()
		for _, c := range exportRow(r) {
			row.AddCell().SetString(c)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "runs export: save %s", path)
	}
	return nil
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
