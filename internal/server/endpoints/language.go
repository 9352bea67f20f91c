package endpoints

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/preprocess"
)

// LanguageRequest is the request body for POST /v1/language.
type LanguageRequest struct {
	ImageData string `json:"image_data"`
}

// LanguageResponse is the response body for POST /v1/language.
type LanguageResponse struct {
	Language  string `json:"language"`
	Tesseract string `json:"tesseract"`
}

// LanguageEndpoint handles POST /v1/language.
type LanguageEndpoint struct {
	deps Deps
}

func (e *LanguageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/language", e.handler
}

func (e *LanguageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
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

	image, status, err := preparePayload(payload, 1, e.deps)
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

	lang := e.deps.Service().DetectLanguage(r.Context(), image)
	writeJSON(w, http.StatusOK, LanguageResponse{
		Language:  lang,
		Tesseract: langdetect.MapForTesseract(lang),
	})
}

func (e *LanguageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "language <file>",
		Short: "Detect the dominant language in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			req := LanguageRequest{
				ImageData: base64.StdEncoding.EncodeToString(data),
			}

			client := api.NewClient(getServerURL())
			var resp LanguageResponse
			if err := client.Post(cmd.Context(), "/v1/language", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
