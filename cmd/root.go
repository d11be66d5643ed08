package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "seia",
	Short: "SEIA entry classification for mining projects",
	Long:  "Evaluates declared project parameters and sensitive-layer geography against Ley 19.300 Art. 11, recommending DIA or EIA with a full audit trail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
