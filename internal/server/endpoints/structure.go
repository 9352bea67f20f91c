package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/textproc"
)

// StructureRequest is the request body for POST /v1/structure.
type StructureRequest struct {
	Text string `json:"text"`
}

// StructureResponse is the response body for POST /v1/structure.
type StructureResponse struct {
	CleanedText string                   `json:"cleaned_text"`
	Structured  *textproc.StructuredData `json:"structured_data"`
}

// StructureEndpoint handles POST /v1/structure.
type StructureEndpoint struct {
	deps Deps
}

func (e *StructureEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/structure", e.handler
}

func (e *StructureEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StructureRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Structure extraction runs on the raw text: cleaning collapses the
	// tabs that mark table rows.
	writeJSON(w, http.StatusOK, StructureResponse{
		CleanedText: textproc.CleanText(req.Text),
		Structured:  textproc.ExtractStructure(req.Text),
	})
}

func (e *StructureEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "structure [file]",
		Short: "Clean text and extract lists and tables",
		Long:  "Clean text and extract lists and tables. Reads from the file argument, or stdin when omitted.",
		Args:  cobra.MaximumNArgs(1),
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

			req := StructureRequest{Text: string(data)}

			client := api.NewClient(getServerURL())
			var resp StructureResponse
			if err := client.Post(cmd.Context(), "/v1/structure", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
