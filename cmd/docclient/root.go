package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/legal-assistant/docclient/pkg/config"
	appLogger "github.com/legal-assistant/docclient/pkg/logger"
)

var (
	flagConfig string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docclient",
	Short: "docclient drives legal document analysis against the inference service",
	Long: `docclient submits a document (pasted text or an uploaded PDF) to the
analysis service and shows a summary, named entities, an answer to a
question, or all three at once.

Usage:
  docclient serve
  docclient analyze --mode summary --input contract.pdf
  docclient health`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLogger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
