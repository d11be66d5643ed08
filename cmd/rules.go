package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule sets",
	Long:  "Commands for validating, displaying, and fingerprinting threshold rule files.",
}

// -- rules validate --

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap, err := loadSnapshot(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("OK: version %s, %d threshold rules, hash %s\n",
			snap.Version, len(snap.Thresholds), snap.Hash)
		return nil
	},
}

// -- rules show --

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active rule set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap, err := loadSnapshot(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Version: %s\nHash:    %s\n\n", snap.Version, snap.Hash)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tPARAMETER\tOP\tVALUE\tOUTCOME\tLETTER\tSEVERITY\tWEIGHT")
		for _, r := range snap.Thresholds {
			value := r.TextValue
			if r.ValueType == "number" {
				value = fmt.Sprintf("%g %s", r.NumericValue, r.Unit)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f\n",
				r.ID, r.Parameter, r.Operator, value, r.Outcome, r.Letter, r.Severity, r.Weight)
		}
		_ = w.Flush()

		fmt.Println("\nProximity (km):")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "LAYER\tTRIGGER\tALERT\tSEVERITY")
		for layer, d := range snap.Proximity.TriggerKM {
			alert, _ := snap.AlertDistance(layer)
			_, _ = fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\n", layer, d, alert, snap.Severity(layer))
		}
		_ = w.Flush()
		return nil
	},
}

// -- rules hash --

var rulesHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the rule set fingerprint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap, err := loadSnapshot(cmd)
		if err != nil {
			return err
		}
		fmt.Println(snap.Hash)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rulesValidateCmd, rulesShowCmd, rulesHashCmd} {
		c.Flags().String("rules", "", "rule file path (default: config, then embedded defaults)")
		rulesCmd.AddCommand(c)
	}
	rootCmd.AddCommand(rulesCmd)
}
