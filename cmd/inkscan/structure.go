package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/textproc"
)

// structureResult is the CLI output shape for in-process structuring.
type structureResult struct {
	CleanedText string                   `json:"cleaned_text" yaml:"cleaned_text"`
	Structured  *textproc.StructuredData `json:"structured_data" yaml:"structured_data"`
}

var structureCmd = &cobra.Command{
	Use:   "structure [file]",
	Short: "Clean text and extract lists and tables without a server",
	Long: `Clean recognized text and extract lists and tables, running
in-process. Reads from the file argument, or stdin when omitted.

Examples:
  inkscan structure notes.txt
  cat notes.txt | inkscan structure`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

		text := string(data)
		return api.Output(structureResult{
			CleanedText: textproc.CleanText(text),
			Structured:  textproc.ExtractStructure(text),
		})
	},
}

func init() {
	rootCmd.AddCommand(structureCmd)
}
