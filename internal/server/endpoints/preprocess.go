package endpoints

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/preprocess"
)

// PreprocessRequest is the request body for POST /v1/preprocess.
type PreprocessRequest struct {
	ImageData string `json:"image_data"`
}

// PreprocessResponse is the response body for POST /v1/preprocess.
type PreprocessResponse struct {
	// ImageData is the enhanced frame, base64-encoded JPEG.
	ImageData     string          `json:"image_data"`
	OriginalSize  preprocess.Size `json:"original_size"`
	ProcessedSize preprocess.Size `json:"processed_size"`
	Quality       float64         `json:"quality"`
}

// PreprocessEndpoint handles POST /v1/preprocess.
type PreprocessEndpoint struct {
	deps Deps
}

func (e *PreprocessEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/preprocess", e.handler
}

func (e *PreprocessEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req PreprocessRequest
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

	result, err := e.deps.Service().PreprocessImage(r.Context(), image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PreprocessResponse{
		ImageData:     base64.StdEncoding.EncodeToString(result.Image),
		OriginalSize:  result.OriginalSize,
		ProcessedSize: result.ProcessedSize,
		Quality:       result.Quality,
	})
}

func (e *PreprocessEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "preprocess <file>",
		Short: "Enhance an image without running recognition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			req := PreprocessRequest{
				ImageData: base64.StdEncoding.EncodeToString(data),
			}

			client := api.NewClient(getServerURL())
			var resp PreprocessResponse
			if err := client.Post(cmd.Context(), "/v1/preprocess", req, &resp); err != nil {
				return err
			}

			if outFile != "" {
				decoded, err := base64.StdEncoding.DecodeString(resp.ImageData)
				if err != nil {
					return fmt.Errorf("decode response image: %w", err)
				}
				if err := os.WriteFile(outFile, decoded, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outFile, err)
				}
				fmt.Printf("Wrote %s (%dx%d, quality %.1f)\n", outFile,
					resp.ProcessedSize.Width, resp.ProcessedSize.Height, resp.Quality)
				return nil
			}

			resp.ImageData = ""
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write the enhanced JPEG to this path")
	return cmd
}
