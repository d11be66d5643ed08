package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atacama-group/seia-cli/internal/audit"
	"github.com/atacama-group/seia-cli/internal/gis"
	"github.com/atacama-group/seia-cli/internal/model"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Manage sensitive geographic layers",
	Long:  "Commands for importing and listing the official sensitive layers (protected areas, glaciers, populated centers, ...) used for spatial evaluation.",
}

// -- layers import --

var layersImportCmd = &cobra.Command{
	Use:   "import <layer> <shapefile>",
	Short: "Import a layer from a shapefile",
	Long: `Imports the features of one sensitive layer into the spatial database.
Re-importing a layer upserts features by source ID.

Layer must be one of: ` + layerNames() + `.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		layer := model.LayerType(args[0])
		if !validLayer(layer) {
			return eris.Errorf("layers import: unknown layer %q (want one of %s)", args[0], layerNames())
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := audit.Migrate(ctx, pool); err != nil {
			return err
		}

		n, err := gis.ImportShapefile(ctx, pool, args[1], layer)
		if err != nil {
			return eris.Wrap(err, "layers import")
		}

		fmt.Printf("Imported %d features into layer %s\n", n, layer)
		return nil
	},
}

// -- layers status --

var layersStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show feature counts per imported layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		rows, err := pool.Query(ctx, `
			SELECT layer, COUNT(*)
			FROM geo.layer_features
			GROUP BY layer
			ORDER BY layer
		`)
		if err != nil {
			return eris.Wrap(err, "layers status")
		}
		defer rows.Close()

		counts := map[model.LayerType]int64{}
		for rows.Next() {
			var layer string
			var n int64
			if err := rows.Scan(&layer, &n); err != nil {
				return eris.Wrap(err, "layers status: scan")
			}
			counts[model.LayerType(layer)] = n
		}
		if err := rows.Err(); err != nil {
			return eris.Wrap(err, "layers status: rows")
		}

		for _, layer := range model.LayerTypes() {
			fmt.Printf("%-22s %d\n", layer, counts[layer])
		}
		return nil
	},
}

func init() {
	layersCmd.AddCommand(layersImportCmd)
	layersCmd.AddCommand(layersStatusCmd)
	rootCmd.AddCommand(layersCmd)
}

func validLayer(l model.LayerType) bool {
	for _, known := range model.LayerTypes() {
		if l == known {
			return true
		}
	}
	return false
}

func layerNames() string {
	names := make([]string, 0, len(model.LayerTypes()))
	for _, l := range model.LayerTypes() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
