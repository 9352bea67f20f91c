package endpoints

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/ocr"
	"github.com/inkscan/inkscan/internal/preprocess"
	"github.com/inkscan/inkscan/internal/rasterize"
	"github.com/inkscan/inkscan/internal/textproc"
)

// RecognizeRequest is the request body for POST /v1/recognize.
type RecognizeRequest struct {
	// ImageData is the input payload, base64 encoded, optionally wrapped
	// in a data URL. PDF payloads are rasterized before recognition.
	ImageData string `json:"image_data"`
	// Language is a BCP 47 code or "auto" for detection. Empty means auto.
	Language string `json:"language,omitempty"`
	// Page selects the PDF page to recognize, 1-indexed. Defaults to 1.
	Page int `json:"page,omitempty"`
	// Structured requests table and list extraction on the result.
	Structured bool `json:"structured,omitempty"`
	// SkipPreprocess bypasses the enhancement pass and sends the decoded
	// payload to providers as-is.
	SkipPreprocess bool `json:"skip_preprocess,omitempty"`
}

// RecognizeResponse is the response body for POST /v1/recognize.
type RecognizeResponse struct {
	RequestID      string                   `json:"request_id"`
	Text           string                   `json:"text"`
	Confidence     float64                  `json:"confidence"`
	Provider       string                   `json:"provider"`
	Language       string                   `json:"language"`
	Structured     *textproc.StructuredData `json:"structured_data,omitempty"`
	ProcessingTime time.Duration            `json:"processing_time_ns"`
}

// RecognizeEndpoint handles POST /v1/recognize.
type RecognizeEndpoint struct {
	deps Deps
}

func (e *RecognizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/recognize", e.handler
}

func (e *RecognizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	logger := e.deps.Logger().With("request_id", requestID)

	var req RecognizeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ImageData == "" {
		writeError(w, http.StatusBadRequest, "image_data is required")
		return
	}

	payload, err := preprocess.DecodePayload(req.ImageData)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid image data: %v", err))
		return
	}

	image, status, err := preparePayload(payload, req.Page, e.deps)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	if limiter := e.deps.Limiter(); limiter != nil {
		if err := limiter.Wait(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "rate limit wait cancelled")
			return
		}
	}

	result, err := e.deps.Service().ProcessImage(r.Context(), image, req.Language, !req.SkipPreprocess)
	if err != nil {
		var fbErr *ocr.FallbackError
		if errors.As(err, &fbErr) {
			logger.Error("all providers failed",
				"remote_error", fbErr.Remote,
				"local_error", fbErr.Local)
		} else {
			logger.Error("recognition failed", "error", err)
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := RecognizeResponse{
		RequestID:      requestID,
		Text:           result.Text,
		Confidence:     result.Confidence,
		Provider:       result.Provider,
		Language:       result.Language,
		ProcessingTime: result.ProcessingTime,
	}
	if req.Structured {
		resp.Structured = e.deps.Service().ExtractStructuredData(result)
	}

	logger.Info("recognition complete",
		"provider", result.Provider,
		"confidence", result.Confidence,
		"duration", result.ProcessingTime)
	writeJSON(w, http.StatusOK, resp)
}

// preparePayload normalizes a decoded payload for recognition. PDFs are
// rasterized to the requested page and HEIC images are converted to PNG.
func preparePayload(payload []byte, page int, deps Deps) ([]byte, int, error) {
	if rasterize.IsPDF(payload) {
		if page < 1 {
			page = 1
		}
		dpi := deps.Config().Rasterize.DPI
		rendered, err := rasterize.RenderPage(payload, page, dpi)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("rasterize pdf: %w", err)
		}
		return rendered, 0, nil
	}

	normalized, err := preprocess.NormalizeInput(payload)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("normalize image: %w", err)
	}
	return normalized, 0, nil
}

func (e *RecognizeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		language   string
		page       int
		structured bool
		skipPre    bool
	)

	cmd := &cobra.Command{
		Use:   "recognize <file>",
		Short: "Recognize text in an image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			req := RecognizeRequest{
				ImageData:      base64.StdEncoding.EncodeToString(data),
				Language:       language,
				Page:           page,
				Structured:     structured,
				SkipPreprocess: skipPre,
			}

			client := api.NewClient(getServerURL())
			var resp RecognizeResponse
			if err := client.Post(cmd.Context(), "/v1/recognize", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", langdetect.Auto, "recognition language code, or auto")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "PDF page to recognize")
	cmd.Flags().BoolVarP(&structured, "structured", "s", false, "extract tables and lists")
	cmd.Flags().BoolVar(&skipPre, "skip-preprocess", false, "skip image enhancement")
	return cmd
}
