package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/config"
	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/ocr"
	"github.com/inkscan/inkscan/internal/preprocess"
	"github.com/inkscan/inkscan/internal/providers"
	"github.com/inkscan/inkscan/internal/rasterize"
	"github.com/inkscan/inkscan/internal/textproc"
)

var (
	recognizeLanguage   string
	recognizePage       int
	recognizeStructured bool
	recognizeVerbose    bool
)

// recognizeResult is the CLI output shape for in-process recognition.
type recognizeResult struct {
	Text           string                   `json:"text" yaml:"text"`
	Confidence     float64                  `json:"confidence" yaml:"confidence"`
	Provider       string                   `json:"provider" yaml:"provider"`
	Language       string                   `json:"language" yaml:"language"`
	Structured     *textproc.StructuredData `json:"structured_data,omitempty" yaml:"structured_data,omitempty"`
	ProcessingTime string                   `json:"processing_time" yaml:"processing_time"`
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <file>",
	Short: "Recognize text in an image or PDF without a server",
	Long: `Recognize text in an image or PDF, running the full pipeline
in-process: no server required. Uses the cloud provider when an API key
is configured, falling back to the local Tesseract engine.

Examples:
  inkscan recognize page.jpg
  inkscan recognize scan.pdf --page 2
  inkscan recognize notes.png --language de --structured`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		level := slog.LevelWarn
		if recognizeVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		if rasterize.IsPDF(data) {
			data, err = rasterize.RenderPage(data, recognizePage, cfg.Rasterize.DPI)
			if err != nil {
				return fmt.Errorf("rasterize pdf: %w", err)
			}
		} else if data, err = preprocess.NormalizeInput(data); err != nil {
			return fmt.Errorf("normalize image: %w", err)
		}

		remote := providers.NewRemoteClient(providers.RemoteConfig{
			APIKey:    config.ResolveEnvVars(cfg.Remote.APIKey),
			BaseURL:   cfg.Remote.BaseURL,
			Timeout:   time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
			RateLimit: cfg.Remote.RateLimit,
			Retries:   cfg.Remote.MaxRetries,
		})
		local := providers.NewTesseractClient(providers.TesseractConfig{
			DataPath: cfg.Local.DataPath,
		})

		service, err := ocr.New(ocr.Config{
			Remote:   remote,
			Local:    local,
			Detector: langdetect.New(remote, logger),
			Preprocessor: &preprocess.Preprocessor{
				MaxDimension: cfg.Preprocess.MaxDimension,
				JPEGQuality:  cfg.Preprocess.JPEGQuality,
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}

		result, err := service.ProcessImage(cmd.Context(), data, recognizeLanguage, true)
		if err != nil {
			return err
		}

		out := recognizeResult{
			Text:           result.Text,
			Confidence:     result.Confidence,
			Provider:       result.Provider,
			Language:       result.Language,
			ProcessingTime: result.ProcessingTime.String(),
		}
		if recognizeStructured {
			out.Structured = service.ExtractStructuredData(result)
		}
		return api.Output(out)
	},
}

func init() {
	recognizeCmd.Flags().StringVarP(&recognizeLanguage, "language", "l", langdetect.Auto, "recognition language code, or auto")
	recognizeCmd.Flags().IntVarP(&recognizePage, "page", "p", 1, "PDF page to recognize")
	recognizeCmd.Flags().BoolVarP(&recognizeStructured, "structured", "s", false, "extract tables and lists")
	recognizeCmd.Flags().BoolVarP(&recognizeVerbose, "verbose", "v", false, "log pipeline stages")

	rootCmd.AddCommand(recognizeCmd)
}
