package main

import (
	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "inkscan",
	Short: "Handwritten note recognition pipeline",
	Long: `Inkscan turns photographed or scanned handwritten notes into clean,
structured text.

The pipeline includes:
  - Image normalization (bounded resize, contrast enhancement)
  - Language detection over a quick text probe
  - Cloud document-text recognition with local Tesseract fallback
  - Whitespace cleanup plus list and table extraction`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.inkscan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
